package services

import (
	"context"
	"fmt"
	"time"

	"rtl-layout-auditor/internal/common"
	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ternarybob/arbor"
)

type rodSource struct {
	config   *common.BrowserConfig
	script   string
	logger   arbor.ILogger
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// NewRodSource connects to Chrome through go-rod, launching a local
// headless instance when no remote URL is configured
func NewRodSource(cfg *common.Config, logger arbor.ILogger) (interfaces.PageSource, error) {
	script, err := BuildCaptureScript(cfg.RoleSelectors())
	if err != nil {
		return nil, err
	}

	source := &rodSource{
		config:  &cfg.Browser,
		script:  script,
		logger:  logger,
		timeout: time.Duration(cfg.Browser.TimeoutSeconds) * time.Second,
	}

	wsURL := cfg.Browser.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(cfg.Browser.Headless)
		if cfg.Browser.ExecPath != "" {
			l = l.Bin(cfg.Browser.ExecPath)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, common.NewBrowserError("launch_failed", "failed to launch chrome").WithCause(err)
		}
		wsURL = u
		source.launcher = l
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		source.Close()
		return nil, common.NewBrowserError("connect_failed", "failed to connect to chrome").
			WithCause(err).
			WithContext("url", wsURL)
	}
	source.browser = b

	logger.Info().
		Str("control_url", wsURL).
		Str("stealth", fmt.Sprintf("%v", cfg.Browser.Stealth)).
		Msg("Rod browser ready")

	return source, nil
}

func (s *rodSource) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
	}
	return err
}

func (s *rodSource) newPage() (*rod.Page, error) {
	if s.config.Stealth {
		return stealth.Page(s.browser)
	}
	return s.browser.Page(proto.TargetCreateTarget{URL: ""})
}

// Capture opens a tab with mobile metrics, navigates and evaluates the
// capture script
func (s *rodSource) Capture(ctx context.Context, page models.PageTarget) (*models.PageSnapshot, error) {
	captureErr := func(err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return common.NewCaptureError("render_failed", "failed to capture page").
			WithCause(err).
			WithContext("page", page.ID).
			WithContext("url", page.URL)
	}

	tab, err := s.newPage()
	if err != nil {
		return nil, captureErr(err)
	}
	defer tab.Close()

	tabCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	tab = tab.Context(tabCtx)

	start := time.Now()
	err = tab.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.config.ViewportWidth,
		Height:            s.config.ViewportHeight,
		DeviceScaleFactor: 2,
		Mobile:            true,
	})
	if err != nil {
		return nil, captureErr(err)
	}

	if err := tab.Navigate(page.URL); err != nil {
		return nil, captureErr(err)
	}
	if err := tab.WaitLoad(); err != nil {
		s.logger.Warn().Err(err).Str("url", page.URL).Msg("Wait for load timed out")
	}
	if s.config.SettleMillis > 0 {
		time.Sleep(time.Duration(s.config.SettleMillis) * time.Millisecond)
	}

	res, err := tab.Eval(`() => ` + s.script)
	if err != nil {
		return nil, captureErr(err)
	}

	outerHTML, err := tab.HTML()
	if err != nil {
		return nil, captureErr(err)
	}

	snapshot, err := ParseCapture(res.Value.Str(), page, models.Viewport{Width: s.config.ViewportWidth, Height: s.config.ViewportHeight})
	if err != nil {
		return nil, err
	}
	snapshot.HTML = outerHTML

	s.logger.Debug().
		Str("page", page.ID).
		Str("url", page.URL).
		Int("observations", len(snapshot.Observations)).
		Dur("duration", time.Since(start)).
		Msg("Page captured")

	return snapshot, nil
}
