package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/restock/internal/app"
)

func adsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ads",
		Short: "Post yesterday's ad performance report and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			pipeline, err := app.Build(cmd.Context(), cfg, app.Options{}, log)
			if err != nil {
				return err
			}
			defer pipeline.Close(cmd.Context())

			if pipeline.AdReport == nil {
				return errors.New("ad report disabled: set FB_ACCESS_TOKEN and FB_AD_ACCOUNT_ID")
			}

			text, err := pipeline.AdReport.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("ad report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
