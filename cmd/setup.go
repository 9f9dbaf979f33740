package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/riftlabs/tokenpulse/internal/config"
	"github.com/riftlabs/tokenpulse/internal/ingest"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive first-time setup wizard",
	RunE:  runSetup,
}

func runSetup(_ *cobra.Command, _ []string) error {
	fc, _ := config.Load()

	platform := string(config.PlatformAll)
	plan := fc.Plan
	if plan == "" {
		if root, err := ingest.ClaudeRoot(); err == nil {
			plan = config.DetectDefaultPlan(root)
		} else {
			plan = "pro"
		}
	}
	theme := fc.Theme
	if theme == "" {
		theme = "flexoki-dark"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which platform(s) do you want to watch?").
				Options(
					huh.NewOption("Both Codex and Claude", string(config.PlatformAll)),
					huh.NewOption("Codex only", string(config.PlatformCodex)),
					huh.NewOption("Claude only", string(config.PlatformClaude)),
				).
				Value(&platform),

			huh.NewSelect[string]().
				Title("Active plan").
				Description("The budget tokenpulse alerts against. Pick \"custom\" to derive the token ceiling from your own usage history.").
				Options(
					huh.NewOption("Free", "free"),
					huh.NewOption("Pay-as-you-go", "payg"),
					huh.NewOption("Tier 1", "tier1"),
					huh.NewOption("Tier 2", "tier2"),
					huh.NewOption("Pro", "pro"),
					huh.NewOption("Max 5x", "max5"),
					huh.NewOption("Max 20x", "max20"),
					huh.NewOption("Custom (P90-derived)", "custom"),
				).
				Value(&plan),

			huh.NewSelect[string]().
				Title("Color theme").
				Options(
					huh.NewOption("Flexoki Dark", "flexoki-dark"),
					huh.NewOption("Catppuccin Mocha", "catppuccin-mocha"),
					huh.NewOption("Catppuccin Latte", "catppuccin-latte"),
					huh.NewOption("Tokyo Night", "tokyo-night"),
					huh.NewOption("Terminal (ANSI 16)", "terminal"),
				).
				Value(&theme),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup wizard: %w", err)
	}

	fc.Plan = plan
	fc.Theme = theme
	fc.Platform = platform
	if err := config.Save(fc); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	path, _ := config.Path()
	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Printf("  Run `tokenpulse watch --platform %s --plan %s` to start, or just `tokenpulse`.\n", platform, plan)
	fmt.Println("  Run `tokenpulse setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
