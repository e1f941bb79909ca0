package services

import (
	"context"
	"fmt"
	"time"

	"rtl-layout-auditor/internal/common"
	"rtl-layout-auditor/internal/interfaces"
	"rtl-layout-auditor/internal/models"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

type chromedpSource struct {
	config  *common.BrowserConfig
	script  string
	logger  arbor.ILogger
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// NewChromedpSource starts (or attaches to) Chrome through chromedp.
// With a remote URL the source connects to an existing browser started with
// --remote-debugging-port, otherwise it launches its own.
func NewChromedpSource(cfg *common.Config, logger arbor.ILogger) (interfaces.PageSource, error) {
	script, err := BuildCaptureScript(cfg.RoleSelectors())
	if err != nil {
		return nil, err
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if cfg.Browser.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.Browser.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Browser.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.WindowSize(cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight),
		)
		if cfg.Browser.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(cfg.Browser.ExecPath))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		logger.Debug().Msg(fmt.Sprintf(format, args...))
	}))

	wrappedCancel := func() {
		cancel()
		allocCancel()
	}

	// First Run starts the browser.
	if err := chromedp.Run(ctx); err != nil {
		wrappedCancel()
		return nil, common.NewBrowserError("start_failed", "failed to start chrome").WithCause(err)
	}

	logger.Info().
		Str("remote_url", cfg.Browser.RemoteURL).
		Str("headless", fmt.Sprintf("%v", cfg.Browser.Headless)).
		Msg("Chrome browser ready")

	return &chromedpSource{
		config:  &cfg.Browser,
		script:  script,
		logger:  logger,
		ctx:     ctx,
		cancel:  wrappedCancel,
		timeout: time.Duration(cfg.Browser.TimeoutSeconds) * time.Second,
	}, nil
}

func (s *chromedpSource) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// Capture renders the page in a fresh tab with mobile emulation and runs the
// capture script against it.
func (s *chromedpSource) Capture(ctx context.Context, page models.PageTarget) (*models.PageSnapshot, error) {
	tabCtx, cancelTab := chromedp.NewContext(s.ctx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, s.timeout)
	defer cancelTimeout()

	// Abort the tab if the caller gives up.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var raw, outerHTML string
	actions := []chromedp.Action{
		emulation.SetDeviceMetricsOverride(int64(s.config.ViewportWidth), int64(s.config.ViewportHeight), 2, true),
		emulation.SetTouchEmulationEnabled(true),
		chromedp.Navigate(page.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if s.config.SettleMillis > 0 {
		actions = append(actions, chromedp.Sleep(time.Duration(s.config.SettleMillis)*time.Millisecond))
	}
	actions = append(actions,
		chromedp.Evaluate(s.script, &raw),
		chromedp.OuterHTML("html", &outerHTML, chromedp.ByQuery),
	)

	start := time.Now()
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, common.NewCaptureError("render_failed", "failed to capture page").
			WithCause(err).
			WithContext("page", page.ID).
			WithContext("url", page.URL)
	}

	snapshot, err := ParseCapture(raw, page, models.Viewport{Width: s.config.ViewportWidth, Height: s.config.ViewportHeight})
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
