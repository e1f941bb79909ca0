package common

import (
	"fmt"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner
func PrintBanner(cfg *Config, mode, logFile string) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorPurple).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")

	b.PrintTopLine()
	b.PrintCenteredText("RTL LAYOUT AUDITOR")
	b.PrintCenteredText("Mobile RTL and Visual Consistency Audit")
	b.PrintSeparatorLine()

	b.PrintKeyValue("Version", GetVersion(), 15)
	b.PrintKeyValue("Build", GetBuild(), 15)
	b.PrintKeyValue("Environment", cfg.Auditor.Environment, 15)
	b.PrintKeyValue("Mode", mode, 15)
	b.PrintKeyValue("Browser", cfg.Browser.Driver, 15)
	b.PrintKeyValue("Viewport", fmt.Sprintf("%dx%d", cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight), 15)
	b.PrintBottomLine()

	fmt.Printf("\n")

	if logFile != "" {
		pattern := strings.Replace(logFile, ".log", ".{YYYY-MM-DDTHH-MM-SS}.log", 1)
		fmt.Printf("📋 Log File: %s\n", pattern)
	}
	if len(cfg.Pages) > 0 {
		fmt.Printf("📱 Pages (%d):\n", len(cfg.Pages))
		for _, p := range cfg.Pages {
			fmt.Printf("   • %s - %s\n", p.ID, p.URL)
		}
	}
	fmt.Printf("\n")
}

// PrintColorizedMessage prints a message with specified color
func PrintColorizedMessage(color, message string) {
	fmt.Printf("%s%s%s\n", color, message, banner.ColorReset)
}

// PrintSuccess prints a success message in green
func PrintSuccess(message string) {
	PrintColorizedMessage(banner.ColorGreen, fmt.Sprintf("✓ %s", message))
}

// PrintError prints an error message in red
func PrintError(message string) {
	PrintColorizedMessage(banner.ColorRed, fmt.Sprintf("✗ %s", message))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(message string) {
	PrintColorizedMessage(banner.ColorYellow, fmt.Sprintf("⚠ %s", message))
}
