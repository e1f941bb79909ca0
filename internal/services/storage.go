package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rtl-layout-auditor/internal/common"
	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"

	"github.com/klauspost/compress/zstd"
	bolt "go.etcd.io/bbolt"
)

const (
	reportsBucket  = "reports"
	metadataBucket = "metadata"
	lastReportKey  = "last_report"

	// Fixed width so keys sort chronologically
	reportIDFormat = "20060102T150405.000000000Z"
)

// Reports are stored as zstd-compressed JSON
type reportStorage struct {
	db      *bolt.DB
	config  *common.StorageConfig
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewReportStorage opens (or creates) the bbolt report archive
func NewReportStorage(config *common.StorageConfig) (interfaces.ReportStorage, error) {
	dbDir := filepath.Dir(config.DatabasePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, common.NewStorageError("mkdir_failed", "failed to create database directory").WithCause(err)
	}

	db, err := bolt.Open(config.DatabasePath, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, common.NewStorageError("open_failed", "failed to open database").WithCause(err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(reportsBucket)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(metadataBucket)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, common.NewStorageError("bucket_failed", "failed to create buckets").WithCause(err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, common.NewStorageError("codec_failed", "failed to create zstd encoder").WithCause(err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, common.NewStorageError("codec_failed", "failed to create zstd decoder").WithCause(err)
	}

	return &reportStorage{
		db:      db,
		config:  config,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

func (s *reportStorage) Close() error {
	if s.decoder != nil {
		s.decoder.Close()
		s.decoder = nil
	}
	if s.encoder != nil {
		s.encoder.Close()
		s.encoder = nil
	}
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *reportStorage) encode(report *models.AggregateReport) ([]byte, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	return s.encoder.EncodeAll(data, nil), nil
}

func (s *reportStorage) decode(value []byte, report *models.AggregateReport) error {
	data, err := s.decoder.DecodeAll(value, nil)
	if err != nil {
		return fmt.Errorf("failed to decompress report: %w", err)
	}
	return json.Unmarshal(data, report)
}

// SaveReport stores a report, assigning an ID from its creation time when unset
func (s *reportStorage) SaveReport(report *models.AggregateReport) error {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	if report.ID == "" {
		report.ID = report.CreatedAt.UTC().Format(reportIDFormat)
	}

	data, err := s.encode(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report %s: %w", report.ID, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(reportsBucket)).Put([]byte(report.ID), data); err != nil {
			return fmt.Errorf("failed to save report %s: %w", report.ID, err)
		}
		return tx.Bucket([]byte(metadataBucket)).Put([]byte(lastReportKey), []byte(report.ID))
	})
}

func (s *reportStorage) LoadReport(id string) (*models.AggregateReport, error) {
	var report *models.AggregateReport

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(reportsBucket)).Get([]byte(id))
		if data == nil {
			return nil
		}
		report = &models.AggregateReport{}
		return s.decode(data, report)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", id, err)
	}
	if report == nil {
		return nil, common.NewStorageError("not_found", "report not found").WithContext("id", id)
	}
	return report, nil
}

// ListReports returns report summaries, newest first
func (s *reportStorage) ListReports() ([]models.ReportSummary, error) {
	summaries := []models.ReportSummary{}

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(reportsBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var report models.AggregateReport
			if err := s.decode(v, &report); err != nil {
				continue
			}
			summaries = append(summaries, models.ReportSummary{
				ID:           report.ID,
				CreatedAt:    report.CreatedAt,
				OverallScore: report.OverallScore,
				Pages:        len(report.Pages),
				Failed:       report.FailedCount(),
				Summary:      report.Summary,
			})
		}
		return nil
	})

	return summaries, err
}

func (s *reportStorage) ClearReports() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(reportsBucket)); err != nil {
			return err
		}
		if _, err := tx.CreateBucket([]byte(reportsBucket)); err != nil {
			return err
		}
		return tx.Bucket([]byte(metadataBucket)).Delete([]byte(lastReportKey))
	})
}

// PruneReports deletes reports older than retentionDays and returns how many
// were removed. A non-positive retention keeps everything.
func (s *reportStorage) PruneReports(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := []byte(time.Now().UTC().AddDate(0, 0, -retentionDays).Format(reportIDFormat))

	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(reportsBucket))
		var stale [][]byte
		c := bucket.Cursor()
		for k, _ := c.First(); k != nil && string(k) < string(cutoff); k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}
