package poller

import (
	"context"
	"fmt"
	"pesterer/pkg/models"

	"golang.org/x/sync/errgroup"
)

const DefaultWorkers = 16

type Fetcher interface {
	Fetch(ctx context.Context, product models.Product, store models.Store) (models.Reading, error)
}

// FetchAll fetches every product at every store with at most workers
// requests in flight. Each request owns one slot of the result slice, laid
// out product-major. The first failure cancels the rest and no readings are
// returned.
func FetchAll(ctx context.Context, fetcher Fetcher, products []models.Product, stores []models.Store, workers int) ([]models.Reading, error) {
	if workers < 1 {
		workers = 1
	}

	readings := make([]models.Reading, len(products)*len(stores))
	if len(readings) == 0 {
		return readings, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, product := range products {
		for j, store := range stores {
			slot := i*len(stores) + j
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				reading, err := fetcher.Fetch(ctx, product, store)
				if err != nil {
					return fmt.Errorf("fetch product %s at store %s: %w", product.ID, store.FullID, err)
				}
				readings[slot] = reading
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return readings, nil
}
