package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/restock/internal/app"
	"github.com/mamadbah2/restock/internal/domain/models"
	"github.com/mamadbah2/restock/internal/service/export"
)

func runCmd() *cobra.Command {
	var (
		outPath   string
		dailyPath string
		opts      app.Options
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the recommendation pipeline once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			pipeline, err := app.Build(cmd.Context(), cfg, opts, log)
			if err != nil {
				return err
			}
			defer pipeline.Close(cmd.Context())

			report, err := pipeline.Recommend.Run(cmd.Context())
			if err != nil {
				return err
			}

			ordered := export.ByGroupUrgency(report.Recommendations)
			if err := writeCSVFile(outPath, export.Rows(ordered)); err != nil {
				return err
			}
			daily := export.DailyWorkList(report.Recommendations, cfg.Engine.DailyWorkLimit)
			if err := writeCSVFile(dailyPath, export.WorkRows(daily)); err != nil {
				return err
			}

			printReport(cmd.OutOrStdout(), report, daily)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the full recommendation list to this CSV file")
	cmd.Flags().StringVar(&dailyPath, "daily-out", "", "write the daily work list to this CSV file")
	cmd.Flags().BoolVar(&opts.Notify, "notify", false, "post the summary to slack")
	cmd.Flags().BoolVar(&opts.WriteBack, "write-back", false, "replace the result sheet with the recommendations")
	cmd.Flags().BoolVar(&opts.History, "save", false, "store the run in mongodb")

	return cmd
}

func writeCSVFile(path string, rows [][]string) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printReport(w io.Writer, report *models.RunReport, daily []export.WorkItem) {
	if len(report.Recommendations) == 0 {
		fmt.Fprintln(w, "No products currently require shipment (stock is sufficient).")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range export.Rows(export.ByGroupUrgency(report.Recommendations)) {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()

	dailyQty := 0
	for _, item := range daily {
		dailyQty += item.TransferQty
	}

	fmt.Fprintf(w, "\nproducts: %d  total qty: %d  urgent: %d  swept: %d\n",
		report.SKUCount, report.TotalQty, report.UrgentCount, report.SweepCount)
	fmt.Fprintf(w, "daily work list: %d products, %d units\n", len(daily), dailyQty)
}
