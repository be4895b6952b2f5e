package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/toastkit/internal/config"
	"github.com/vango-dev/toastkit/internal/scenario"
)

func validateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a scenario file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			if configPath != "" {
				if _, err := config.Load(configPath); err != nil {
					return err
				}
			}

			success("%s is valid", args[0])
			info("%d steps, last at %s", len(sc.Steps), sc.End())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Also check this config file")

	return cmd
}
