package poller

import (
	"context"
	"fmt"
	"log/slog"
	"pesterer/pkg/models"
	"time"
)

// Store is the persistence the poller reconciles against.
type Store interface {
	Availability(ctx context.Context) (map[models.Key]int, error)
	Apply(ctx context.Context, run *models.Run, changes []models.Change) error
	NewRun() models.Run
}

type Poller struct {
	Fetcher Fetcher
	Store   Store
	Workers int
	Now     func() time.Time
}

type Result struct {
	Run      models.Run
	Readings []models.Reading
	Changes  []models.Change
}

func New(fetcher Fetcher, store Store, workers int) *Poller {
	return &Poller{Fetcher: fetcher, Store: store, Workers: workers, Now: time.Now}
}

// Run polls every product at every store, then writes the differences with
// the persisted state and the run record in one transaction. The store is
// only touched once all fetches have succeeded. Once that transaction has
// committed Run no longer fails, so committed changes are always returned.
func (p *Poller) Run(ctx context.Context, products []models.Product, stores []models.Store) (Result, error) {
	run := p.Store.NewRun()
	workers := p.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}

	slog.InfoContext(ctx, "polling availability",
		"run", run.ID,
		"products", len(products),
		"stores", len(stores),
		"workers", workers,
	)

	readings, err := FetchAll(ctx, p.Fetcher, products, stores, workers)
	if err != nil {
		return Result{}, err
	}

	previous, err := p.Store.Availability(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load previous availability: %w", err)
	}

	changes := Diff(previous, readings)

	run.FinishedAt = p.Now().UTC()
	run.Fetched = len(readings)
	for _, c := range changes {
		switch c.Kind {
		case models.ChangeInsert:
			run.Inserted++
		case models.ChangeUpdate:
			run.Updated++
		}
	}
	if err := p.Store.Apply(ctx, &run, changes); err != nil {
		return Result{}, fmt.Errorf("apply changes: %w", err)
	}

	slog.InfoContext(ctx, "poll finished",
		"run", run.ID,
		"fetched", run.Fetched,
		"inserted", run.Inserted,
		"updated", run.Updated,
		"took", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
	)

	return Result{Run: run, Readings: readings, Changes: changes}, nil
}
