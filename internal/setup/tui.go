// Package setup provides the interactive configuration wizard.
package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/seesaw/config"
	"github.com/vadiminshakov/seesaw/internal/domain"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and writes the result
// to config.gen.yaml.
func RunTUI() error {
	var (
		platform     string
		pair         string
		quote        string
		windowStr    string
		thresholdStr string
		fractionStr  string
		minQtyStr    string
		tickStr      string
		webAddr      string
		confirm      bool
	)

	// defaults
	pair = "ETH_BTC"
	quote = "USDT"
	windowStr = "1h"
	thresholdStr = "0.05"
	fractionStr = "0.25"
	minQtyStr = "0"
	tickStr = "5m"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("SEESAW CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's get your rebalancer set up.\n"))

	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Hyperliquid", "hyperliquid"),
					huh.NewOption("Simulation", "simulate"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SEESAW CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: ASSETS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Asset Pair").
				Description("Two assets balanced against each other (e.g. ETH_BTC)").
				Value(&pair).
				Validate(func(s string) error {
					_, err := domain.PairFromString(s)
					return err
				}),
			huh.NewInput().
				Title("Quote Currency").
				Description("Conversions route through this currency (e.g. USDT)").
				Value(&quote).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("quote currency cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SEESAW CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: DIVERGENCE"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Observation Window").
				Description("Duration string (e.g. 30m, 1h, 4h)").
				Value(&windowStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Divergence Threshold").
				Description("Fraction, e.g. 0.05 fires at 5% divergence").
				Value(&thresholdStr).
				Validate(validatePositiveDecimal),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SEESAW CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: SIZING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Sizing Fraction").
				Description("Fraction of the source balance converted per trigger (0-1]").
				Value(&fractionStr).
				Validate(validateFraction),
			huh.NewInput().
				Title("Min Trade Quantity").
				Description("Balance below which rebalancing is skipped, 0 disables").
				Value(&minQtyStr).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(s)
					if err != nil {
						return fmt.Errorf("must be a valid number")
					}
					if d.IsNegative() {
						return fmt.Errorf("must not be negative")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SEESAW CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: TIMING & WEB"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Tick Interval").
				Description("How often both assets are sampled (e.g. 1m, 5m)").
				Value(&tickStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Status Server Address").
				Description("Listen address like :8080, empty disables the web UI").
				Value(&webAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SEESAW CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Platform: %s\nPair: %s\nQuote: %s\nWindow: %s\nThreshold: %s\nFraction: %s\nTick: %s\n",
		platform, pair, quote, windowStr, thresholdStr, fractionStr, tickStr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	window, _ := time.ParseDuration(windowStr)
	tick, _ := time.ParseDuration(tickStr)

	cfgTmp := config.ConfigTmp{
		Platform:         platform,
		Pair:             pair,
		Quote:            quote,
		Window:           window,
		Threshold:        thresholdStr,
		SizingFraction:   fractionStr,
		MinTradeQuantity: minQtyStr,
		TickInterval:     tick,
		WebAddr:          webAddr,
	}

	data, err := yaml.Marshal([]config.ConfigTmp{cfgTmp})
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting engine...", filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("must be a positive duration")
	}
	return nil
}

func validatePositiveDecimal(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateFraction(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() || d.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("must be in (0, 1]")
	}
	return nil
}
