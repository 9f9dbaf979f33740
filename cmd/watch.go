package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/riftlabs/tokenpulse/internal/tui"
	"github.com/riftlabs/tokenpulse/internal/tui/theme"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Launch the interactive TUI dashboard (default command)",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Theme)

	// Without this lipgloss may default to the Ascii profile and drop all
	// background/foreground styling on terminals that support more.
	lipgloss.SetColorProfile(termenv.TrueColor)

	driver, closers, err := buildDriver(cfg)
	if err != nil {
		return err
	}
	defer closeAll(closers)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		_ = driver.Run(ctx)
	}()

	p := tea.NewProgram(tui.New(driver), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
