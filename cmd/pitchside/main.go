package main

import (
	"fmt"
	"os"

	"github.com/Egham-7/pitchside/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "pitchside",
		Short:   "Pitchside - cached, routed answers for football questions",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnvFiles([]string{".env.local", ".env.development", ".env"})
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "config.yaml", "path to the YAML configuration file")

	root.AddCommand(
		newServeCmd(),
		newIngestCmd(),
		newCacheCmd(),
		newTokenCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
