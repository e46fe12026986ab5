package store

import (
	"context"
	"errors"
	"pesterer/pkg/models"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func memStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProductsAndStores(t *testing.T) {
	ctx := context.Background()
	s := memStore(t)

	require.NoError(t, s.UpsertProducts(ctx, []models.Product{
		{ID: "123", Name: "Tent", Color: "green", Size: "2P", Favorite: true},
		{ID: "456", Name: "Stove"},
	}))
	// upserting again updates in place instead of duplicating
	require.NoError(t, s.UpsertProducts(ctx, []models.Product{
		{ID: "456", Name: "Camping stove", Favorite: false},
	}))

	all, err := s.Products(ctx, false)
	require.NoError(t, err)
	require.Equal(t, []models.Product{
		{ID: "123", Name: "Tent", Color: "green", Size: "2P", Favorite: true},
		{ID: "456", Name: "Camping stove"},
	}, all)

	favs, err := s.Products(ctx, true)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	require.Equal(t, "123", favs[0].ID)

	p, err := s.Product(ctx, "456")
	require.NoError(t, err)
	require.Equal(t, "Camping stove", p.Name)

	_, err = s.Product(ctx, "999")
	require.True(t, errors.Is(err, models.ErrProductNotFound))

	require.NoError(t, s.UpsertStores(ctx, []models.Store{
		{ID: "007", FullID: "007AAAAA", Description: "Milano", Favorite: true},
		{ID: "008", FullID: "007BBBBB", Description: "Torino"},
	}))
	stores, err := s.Stores(ctx, true)
	require.NoError(t, err)
	require.Equal(t, []models.Store{{ID: "007", FullID: "007AAAAA", Description: "Milano", Favorite: true}}, stores)

	stores, err = s.Stores(ctx, false)
	require.NoError(t, err)
	require.Len(t, stores, 2)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	s := memStore(t)
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Apply(ctx, nil, []models.Change{
		{Kind: models.ChangeInsert, Reading: models.Reading{ProductID: "123", StoreID: "007AAAAA", Quantity: 0}},
		{Kind: models.ChangeInsert, Reading: models.Reading{ProductID: "456", StoreID: "007BBBBB", Quantity: 2}},
	}))

	avail, err := s.Availability(ctx)
	require.NoError(t, err)
	require.Equal(t, map[models.Key]int{
		{ProductID: "123", StoreID: "007AAAAA"}: 0,
		{ProductID: "456", StoreID: "007BBBBB"}: 2,
	}, avail)

	require.NoError(t, s.Apply(ctx, nil, []models.Change{
		{Kind: models.ChangeUpdate, Reading: models.Reading{ProductID: "123", StoreID: "007AAAAA", Quantity: 3}, Previous: 0},
	}))

	rows, err := s.ListAvailability(ctx, "123", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 3, rows[0].Quantity)
	require.True(t, fixed.Equal(rows[0].UpdatedAt))
}

func TestApplyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := memStore(t)

	require.NoError(t, s.Apply(ctx, nil, []models.Change{
		{Kind: models.ChangeInsert, Reading: models.Reading{ProductID: "123", StoreID: "007AAAAA", Quantity: 1}},
	}))

	// the duplicate insert violates the primary key, so the first insert in
	// the batch must be rolled back as well
	err := s.Apply(ctx, nil, []models.Change{
		{Kind: models.ChangeInsert, Reading: models.Reading{ProductID: "456", StoreID: "007AAAAA", Quantity: 1}},
		{Kind: models.ChangeInsert, Reading: models.Reading{ProductID: "123", StoreID: "007AAAAA", Quantity: 5}},
	})
	require.Error(t, err)

	avail, err := s.Availability(ctx)
	require.NoError(t, err)
	require.Equal(t, map[models.Key]int{{ProductID: "123", StoreID: "007AAAAA"}: 1}, avail)

	err = s.Apply(ctx, nil, []models.Change{
		{Kind: models.ChangeUpdate, Reading: models.Reading{ProductID: "missing", StoreID: "007AAAAA", Quantity: 1}},
	})
	require.Error(t, err)
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := memStore(t)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		run := s.NewRun()
		require.NotEmpty(t, run.ID)
		run.FinishedAt = run.StartedAt.Add(time.Minute)
		run.Fetched = 4
		run.Inserted = i
		require.NoError(t, s.Apply(ctx, &run, nil))
	}

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, 2, runs[0].Inserted)
	require.Equal(t, 1, runs[1].Inserted)
	require.True(t, base.Add(2*time.Hour).Equal(runs[0].StartedAt))
}

func TestApplyRecordsRunWithChanges(t *testing.T) {
	ctx := context.Background()
	s := memStore(t)

	run := s.NewRun()
	run.FinishedAt = run.StartedAt
	run.Fetched = 1
	run.Inserted = 1
	require.NoError(t, s.Apply(ctx, &run, []models.Change{
		{Kind: models.ChangeInsert, Reading: models.Reading{ProductID: "123", StoreID: "007AAAAA", Quantity: 1}},
	}))

	runs, err := s.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, run.ID, runs[0].ID)

	// a failing change takes the run row down with it
	failed := s.NewRun()
	err = s.Apply(ctx, &failed, []models.Change{
		{Kind: models.ChangeInsert, Reading: models.Reading{ProductID: "123", StoreID: "007AAAAA", Quantity: 2}},
	})
	require.Error(t, err)

	runs, err = s.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestStoreLookup(t *testing.T) {
	ctx := context.Background()
	s := memStore(t)

	require.NoError(t, s.UpsertStores(ctx, []models.Store{
		{ID: "007", FullID: "007AAAAA", Description: "Milano"},
	}))

	st, err := s.Store(ctx, "007AAAAA")
	require.NoError(t, err)
	require.Equal(t, "Milano", st.Description)

	_, err = s.Store(ctx, "999ZZZZZ")
	require.ErrorIs(t, err, models.ErrStoreNotFound)
}
