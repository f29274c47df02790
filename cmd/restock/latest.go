package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/restock/internal/app"
)

func latestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Print the most recent stored run as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			pipeline, err := app.Build(cmd.Context(), cfg, app.Options{History: true}, log)
			if err != nil {
				return err
			}
			defer pipeline.Close(cmd.Context())

			report, err := pipeline.Recommend.Latest(cmd.Context())
			if err != nil {
				return fmt.Errorf("latest run: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
