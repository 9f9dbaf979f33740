package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riftlabs/tokenpulse/internal/cli"
	"github.com/riftlabs/tokenpulse/internal/config"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "List available plans, or show the resolved limits for the active one",
	RunE:  runPlan,
}

func runPlan(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("plan") {
		fmt.Println("  available plans:")
		for _, name := range []string{"free", "payg", "tier1", "tier2", "pro", "max5", "max20", "custom"} {
			fmt.Printf("    %s\n", name)
		}
		fmt.Println()
		fmt.Println("  pass --plan <name> to see its resolved limits")
		return nil
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	plan, ok := config.ResolvePlan(cfg.Plan, cfg.CustomLimitTokens, cfg.CustomLimitCost, cfg.CustomLimitCostSet)
	if !ok {
		return fmt.Errorf("unknown plan %q", cfg.Plan)
	}

	fmt.Printf("  plan: %s\n", plan.Name)
	if plan.TokenUnlimited {
		fmt.Println("  token limit: unlimited")
	} else if plan.Name == "custom" && plan.TokenLimit == 0 {
		fmt.Println("  token limit: derived from P90 of observed session blocks (not yet computed)")
	} else {
		fmt.Printf("  token limit: %s\n", cli.FormatTokens(plan.TokenLimit))
	}
	if plan.CostUnlimited {
		fmt.Println("  cost limit: unlimited")
	} else {
		fmt.Printf("  cost limit: %s\n", cli.FormatCost(plan.CostLimit))
	}
	fmt.Printf("  warning thresholds: %v%%\n", plan.WarningThresholds)
	return nil
}
