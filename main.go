package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"pesterer/pkg/config"
	"pesterer/pkg/logger"
	"pesterer/pkg/store"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pesterer",
	Short: "pesterer polls store availability of tracked products and reports what changed.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(os.Stderr, verbose)

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "pesterer.json5", "path to the json5 config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
