package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/riftlabs/tokenpulse/internal/cli"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a one-shot usage/alert snapshot without entering the TUI",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	driver, closers, err := buildDriver(cfg)
	if err != nil {
		return err
	}
	defer closeAll(closers)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RefreshRate/2+5*time.Second)
	defer cancel()

	snap := driver.TickOnce(ctx)
	cli.RenderStatus(os.Stdout, snap)
	return nil
}
