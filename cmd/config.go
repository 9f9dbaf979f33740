package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/riftlabs/tokenpulse/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved persisted configuration file",
	RunE:  runConfig,
}

func runConfig(_ *cobra.Command, _ []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	fc, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  config file: %s\n\n", path)
	if err := toml.NewEncoder(os.Stdout).Encode(fc); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}
