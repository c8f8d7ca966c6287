package main

import (
	pkgconfig "github.com/Egham-7/pitchside/pkg/config"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the answer API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return pkgconfig.NewServer(cfg).Run()
		},
	}
}
