package services

import (
	"rtl-layout-auditor/internal/common"
	"rtl-layout-auditor/internal/interfaces"

	"github.com/ternarybob/arbor"
)

// NewPageSource creates the observation source selected by browser.driver
func NewPageSource(cfg *common.Config, logger arbor.ILogger) (interfaces.PageSource, error) {
	switch cfg.Browser.Driver {
	case common.DriverPlaywright:
		return NewPlaywrightSource(cfg, logger)
	case common.DriverRod:
		return NewRodSource(cfg, logger)
	default:
		return NewChromedpSource(cfg, logger)
	}
}
