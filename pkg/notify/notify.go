// Package notify delivers availability changes after a committed poll.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"pesterer/pkg/models"
)

type Notifier interface {
	Notify(ctx context.Context, catalog models.Catalog, changes []models.Change) error
}

// Log writes one structured line per change.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(ctx context.Context, catalog models.Catalog, changes []models.Change) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, c := range changes {
		logger.InfoContext(ctx, "availability changed",
			"kind", string(c.Kind),
			"product", c.Reading.ProductID,
			"product_name", catalog.ProductName(c.Reading.ProductID),
			"store", c.Reading.StoreID,
			"store_name", catalog.StoreName(c.Reading.StoreID),
			"previous", c.Previous,
			"quantity", c.Reading.Quantity,
			"available", c.Reading.Available(),
		)
	}
	return nil
}

// Multi fans out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, catalog models.Catalog, changes []models.Change) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, catalog, changes); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
