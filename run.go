package main

import (
	"context"
	"fmt"
	"log/slog"
	"pesterer/pkg/config"
	"pesterer/pkg/decathlon"
	"pesterer/pkg/logger"
	"pesterer/pkg/models"
	"pesterer/pkg/notify"
	"pesterer/pkg/poller"
	"pesterer/pkg/report"
	"time"

	"github.com/spf13/cobra"
)

var (
	runAll     bool
	runWorkers int
)

func init() {
	runCmd.Flags().BoolVar(&runAll, "all", false, "poll every product and store instead of favorites only")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "number of concurrent requests (default from config, 16)")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--all] [-w <workers>]",
	Short: "Fetches availability once, stores what changed and reports it.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if runWorkers < 0 {
			return fmt.Errorf("invalid --workers %d: must not be negative", runWorkers)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		products, err := st.Products(ctx, !runAll)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		stores, err := st.Stores(ctx, !runAll)
		if err != nil {
			return fmt.Errorf("load stores: %w", err)
		}
		if len(products) == 0 || len(stores) == 0 {
			slog.Warn("nothing to poll, import products and stores first",
				"products", len(products),
				"stores", len(stores),
				"favorites_only", !runAll,
			)
			return nil
		}

		fetcher, closeFetcher, err := newFetcher(cfg)
		if err != nil {
			return err
		}
		defer closeFetcher()

		workers := cfg.Workers
		if runWorkers > 0 {
			workers = runWorkers
		}

		res, err := poller.New(fetcher, st, workers).Run(ctx, products, stores)
		logger.Flush()
		if err != nil {
			return err
		}

		catalog := models.NewCatalog(products, stores)
		report.Changes(cmd.OutOrStdout(), catalog, res.Changes)

		if len(res.Changes) > 0 {
			// changes are committed already: notify even if interrupted, and
			// a failed notification is not fatal
			if err := newNotifier(cfg).Notify(context.WithoutCancel(ctx), catalog, res.Changes); err != nil {
				slog.Warn("notification failed", "err", err)
			}
		}
		return nil
	},
}

func newFetcher(cfg config.Config) (poller.Fetcher, func(), error) {
	opts := decathlon.Options{
		Endpoint:  cfg.Endpoint,
		UserAgent: cfg.UserAgent,
	}
	if cfg.TimeoutSeconds != nil {
		opts.Timeout = time.Duration(*cfg.TimeoutSeconds) * time.Second
	}

	switch cfg.Fetcher {
	case config.FetcherBrowser:
		browser, err := decathlon.NewBrowser(opts)
		if err != nil {
			return nil, nil, err
		}
		return browser, func() { browser.Close() }, nil
	default:
		return decathlon.NewClient(opts), func() {}, nil
	}
}

func newNotifier(cfg config.Config) notify.Notifier {
	notifiers := notify.Multi{notify.Log{}}
	if cfg.Email != nil && cfg.Email.Server != "" && len(cfg.Email.To) > 0 {
		notifiers = append(notifiers, notify.NewEmail(*cfg.Email))
	}
	return notifiers
}
