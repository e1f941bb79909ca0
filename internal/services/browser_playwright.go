package services

import (
	"context"
	"fmt"
	"time"

	"rtl-layout-auditor/internal/common"
	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"

	"github.com/playwright-community/playwright-go"
	"github.com/ternarybob/arbor"
)

type playwrightSource struct {
	config  *common.BrowserConfig
	script  string
	logger  arbor.ILogger
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewPlaywrightSource launches Chromium through Playwright
func NewPlaywrightSource(cfg *common.Config, logger arbor.ILogger) (interfaces.PageSource, error) {
	script, err := BuildCaptureScript(cfg.RoleSelectors())
	if err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, common.NewBrowserError("playwright_start_failed", "could not start playwright").WithCause(err)
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Browser.Headless),
		Timeout:  playwright.Float(float64(cfg.Browser.TimeoutSeconds * 1000)),
	}
	if cfg.Browser.ExecPath != "" {
		opts.ExecutablePath = playwright.String(cfg.Browser.ExecPath)
	}

	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		pw.Stop()
		return nil, common.NewBrowserError("launch_failed", "could not launch chromium").WithCause(err)
	}

	logger.Info().
		Str("headless", fmt.Sprintf("%v", cfg.Browser.Headless)).
		Msg("Playwright browser ready")

	return &playwrightSource{
		config:  &cfg.Browser,
		script:  script,
		logger:  logger,
		pw:      pw,
		browser: browser,
	}, nil
}

func (s *playwrightSource) Close() error {
	if err := s.browser.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to close browser")
	}
	return s.pw.Stop()
}

// Capture renders the page in an isolated mobile browser context
func (s *playwrightSource) Capture(ctx context.Context, page models.PageTarget) (*models.PageSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	viewport := models.Viewport{Width: s.config.ViewportWidth, Height: s.config.ViewportHeight}
	bctx, err := s.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: viewport.Width, Height: viewport.Height},
		IsMobile: playwright.Bool(true),
		HasTouch: playwright.Bool(true),
	})
	if err != nil {
		return nil, common.NewBrowserError("context_failed", "could not create browser context").WithCause(err)
	}
	defer bctx.Close()

	p, err := bctx.NewPage()
	if err != nil {
		return nil, common.NewBrowserError("page_failed", "could not open page").WithCause(err)
	}

	start := time.Now()
	if _, err := p.Goto(page.URL, playwright.PageGotoOptions{
		Timeout: playwright.Float(float64(s.config.TimeoutSeconds * 1000)),
	}); err != nil {
		return nil, s.captureError(page, err)
	}
	if s.config.SettleMillis > 0 {
		p.WaitForTimeout(float64(s.config.SettleMillis))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := p.Evaluate(s.script)
	if err != nil {
		return nil, s.captureError(page, err)
	}
	raw, ok := result.(string)
	if !ok {
		return nil, common.NewCaptureError("unexpected_result", "capture script returned a non-string value").
			WithContext("page", page.ID)
	}

	snapshot, err := ParseCapture(raw, page, viewport)
	if err != nil {
		return nil, err
	}

	content, err := p.Content()
	if err != nil {
		return nil, s.captureError(page, err)
	}
	snapshot.HTML = content

	s.logger.Debug().
		Str("page", page.ID).
		Str("url", page.URL).
		Int("observations", len(snapshot.Observations)).
		Dur("duration", time.Since(start)).
		Msg("Page captured")

	return snapshot, nil
}

func (s *playwrightSource) captureError(page models.PageTarget, err error) error {
	return common.NewCaptureError("render_failed", "failed to capture page").
		WithCause(err).
		WithContext("page", page.ID).
		WithContext("url", page.URL)
}
