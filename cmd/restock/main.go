package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/restock/internal/config"
	"github.com/mamadbah2/restock/pkg/logger"
)

var (
	envFile string
	verbose bool

	rootCmd = &cobra.Command{
		Use:           "restock",
		Short:         "Recommend warehouse to channel stock transfers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default: .env when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(latestCmd())
	rootCmd.AddCommand(adsCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewConsole(verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
