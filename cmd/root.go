// Package cmd wires the cobra command tree: the persistent platform/plan/
// timing flags every subcommand shares, and the shared driver-construction
// path that turns a resolved config.Config into a running monitor.Driver.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/riftlabs/tokenpulse/internal/config"
	"github.com/riftlabs/tokenpulse/internal/ingest"
	"github.com/riftlabs/tokenpulse/internal/monitor"
	"github.com/riftlabs/tokenpulse/internal/usage"
)

var (
	flagPlatform          string
	flagPlan              string
	flagCustomLimitTokens int64
	flagCustomLimitCost   float64
	flagRefreshRate       int
	flagTimezone          string
	flagResetHour         int
	flagTheme             string
)

var rootCmd = &cobra.Command{
	Use:           "tokenpulse",
	Short:         "Real-time spend and rate-limit dashboard for Codex and Claude usage",
	Long:          "tokenpulse watches Codex and Claude usage logs and renders rolling session-block spend, burn rate, and budget alerts, live in the terminal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runWatch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPlatform, "platform", "all", "Which providers to run: codex, claude, or all")
	rootCmd.PersistentFlags().StringVar(&flagPlan, "plan", "pro", "Active plan: free, payg, tier1, tier2, pro, max5, max20, custom")
	rootCmd.PersistentFlags().Int64Var(&flagCustomLimitTokens, "custom-limit-tokens", 0, "Token limit for --plan custom (requires it); the running monitor replaces it each tick with the P90-derived limit")
	rootCmd.PersistentFlags().Float64Var(&flagCustomLimitCost, "custom-limit-cost", 0, "Cost limit override, requires --plan custom")
	rootCmd.PersistentFlags().IntVar(&flagRefreshRate, "refresh-rate", 10, "Driver tick period in seconds (1-60)")
	rootCmd.PersistentFlags().StringVar(&flagTimezone, "timezone", "UTC", "Timezone for display of block boundaries")
	rootCmd.PersistentFlags().IntVar(&flagResetHour, "reset-hour", 0, "Hour-of-day (0-23) the daily bucket view rolls over")
	rootCmd.PersistentFlags().StringVar(&flagTheme, "theme", "", "Color theme override (defaults to the persisted config's theme)")

	rootCmd.AddCommand(watchCmd, daemonCmd, statusCmd, planCmd, configCmd, setupCmd)
}

// Execute is the entry point main.go calls. Exit codes: 0 on normal
// shutdown, 1 on unrecoverable/config error, 2 when a required source
// directory is missing.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var srcMissing *sourceDirMissingError
		switch {
		case errors.As(err, &srcMissing):
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(2)
		case errors.Is(err, context.Canceled):
			os.Exit(0)
		default:
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}
}

// sourceDirMissingError reports that the platform selected requires a
// provider directory that doesn't exist; it maps to exit code 2.
type sourceDirMissingError struct {
	Provider usage.Provider
	Path     string
}

func (e *sourceDirMissingError) Error() string {
	return fmt.Sprintf("%s source directory not found: %s", e.Provider, e.Path)
}

// resolveConfig assembles a config.Config from the bound flags, falling
// back to the persisted FileConfig's platform/plan when those flags were
// not set and to its theme when --theme is empty, then validates the result.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	fc, fcErr := config.Load()

	cfg := config.Default()
	cfg.Platform = config.Platform(flagPlatform)
	if !cmd.Flags().Changed("platform") && fcErr == nil && fc.Platform != "" {
		cfg.Platform = config.Platform(fc.Platform)
	}
	cfg.Plan = flagPlan
	if !cmd.Flags().Changed("plan") && fcErr == nil && fc.Plan != "" {
		cfg.Plan = fc.Plan
	}
	cfg.CustomLimitTokens = flagCustomLimitTokens
	cfg.CustomLimitCost = flagCustomLimitCost
	cfg.CustomLimitCostSet = cmd.Flags().Changed("custom-limit-cost")
	cfg.RefreshRate = time.Duration(flagRefreshRate) * time.Second
	cfg.Timezone = flagTimezone
	cfg.ResetHour = flagResetHour
	cfg.Theme = flagTheme

	if cfg.Theme == "" {
		if fcErr == nil && fc.Theme != "" {
			cfg.Theme = fc.Theme
		} else {
			cfg.Theme = "flexoki-dark"
		}
	}
	if fcErr == nil {
		cfg.PricingOverrides = fc.PricingOverrides
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// buildDriver turns a resolved Config into a running Driver's ingredients:
// one Source and one resolved PlanLimits per selected provider.
func buildDriver(cfg config.Config) (*monitor.Driver, []closer, error) {
	plan, ok := config.ResolvePlan(cfg.Plan, cfg.CustomLimitTokens, cfg.CustomLimitCost, cfg.CustomLimitCostSet)
	if !ok {
		return nil, nil, &config.ConfigError{Reason: fmt.Sprintf("unknown plan %q", cfg.Plan)}
	}

	warnIfFlagsChanged(cfg, plan)

	sources := make(map[usage.Provider]ingest.Source)
	plans := make(map[usage.Provider]config.PlanLimits)
	var closers []closer

	if cfg.Platform == config.PlatformAll || cfg.Platform == config.PlatformClaude {
		root, err := ingest.ClaudeRoot()
		if err != nil {
			return nil, nil, fmt.Errorf("resolving claude root: %w", err)
		}
		if _, err := os.Stat(root); err != nil {
			return nil, nil, &sourceDirMissingError{Provider: usage.Claude, Path: root}
		}
		src := ingest.NewClaudeSource(root)
		sources[usage.Claude] = src
		plans[usage.Claude] = plan
		closers = append(closers, src)
	}

	if cfg.Platform == config.PlatformAll || cfg.Platform == config.PlatformCodex {
		path, err := ingest.CodexLogPath()
		if err != nil {
			return nil, nil, fmt.Errorf("resolving codex log path: %w", err)
		}
		src := ingest.NewCodexSource(path)
		sources[usage.Codex] = src
		plans[usage.Codex] = plan
		closers = append(closers, src)
	}

	closers = append(closers, wireCursorStore(sources))

	return monitor.NewDriver(cfg.RefreshRate, cfg.ResetHour, sources, plans), closers, nil
}

// warnIfFlagsChanged compares the resolved plan and pricing overrides
// against the fingerprint persisted from the previous run, logging a
// one-line notice when the combination has changed, then persists the
// current combination for next time. A fingerprinting or persistence
// failure is logged and otherwise ignored - this is a diagnostic, never
// worth failing the run over.
func warnIfFlagsChanged(cfg config.Config, plan config.PlanLimits) {
	lu, err := config.LoadLastUsed()
	if err != nil {
		log.Printf("tokenpulse: loading last-used flags: %v", err)
	}
	if lu.Fingerprint != 0 && lu.Stale(plan, cfg.PricingOverrides) {
		log.Printf("tokenpulse: plan/pricing flags changed since the last run (was plan=%s)", lu.Plan)
	}

	fp, err := config.Fingerprint(plan, cfg.PricingOverrides)
	if err != nil {
		log.Printf("tokenpulse: fingerprinting config: %v", err)
		return
	}
	if err := config.SaveLastUsed(config.LastUsed{Platform: cfg.Platform, Plan: cfg.Plan, Fingerprint: fp}); err != nil {
		log.Printf("tokenpulse: saving last-used flags: %v", err)
	}
}

// closer is satisfied by both ingest sources; buildDriver's callers defer
// closing every source's fsnotify watch on shutdown.
type closer interface {
	Close() error
}

func closeAll(closers []closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}
