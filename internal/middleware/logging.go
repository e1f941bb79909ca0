package middleware

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
)

// ReportIDHeader carries the archived report id on audit and report responses
const ReportIDHeader = "X-Report-ID"

// quietPaths are polled by monitors and logged at debug level only
var quietPaths = map[string]bool{
	"/health":  true,
	"/version": true,
}

// auditResponseWriter captures what the request logger reports
type auditResponseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (w *auditResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *auditResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Logging logs each request with the report it produced or read, if any.
// Server errors are logged as warnings.
func Logging(logger arbor.ILogger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			aw := &auditResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next(aw, r)

			event := logger.Info()
			switch {
			case aw.statusCode >= http.StatusInternalServerError:
				event = logger.Warn()
			case quietPaths[r.URL.Path]:
				event = logger.Debug()
			}

			event = event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", aw.statusCode).
				Int("bytes", aw.bytes).
				Dur("duration", time.Since(start))

			reportID := aw.Header().Get(ReportIDHeader)
			if reportID == "" {
				reportID = r.URL.Query().Get("id")
			}
			if reportID != "" {
				event = event.Str("report_id", reportID)
			}

			event.Msg("HTTP request")
		}
	}
}
