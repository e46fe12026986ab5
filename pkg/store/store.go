package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pesterer/pkg/models"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	color TEXT NOT NULL DEFAULT '',
	size TEXT NOT NULL DEFAULT '',
	favorite INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS stores (
	full_id TEXT PRIMARY KEY,
	id TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	favorite INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS availability (
	product_id TEXT NOT NULL,
	store_id TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (product_id, store_id)
);
CREATE INDEX IF NOT EXISTS idx_availability_store ON availability(store_id);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	fetched INTEGER NOT NULL,
	inserted INTEGER NOT NULL,
	updated INTEGER NOT NULL
);
`

// Store persists reference data, the last known availability per
// (product, store) pair and a log of completed runs.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases coherent and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) UpsertProducts(ctx context.Context, products []models.Product) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range products {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO products (id, name, color, size, favorite)
			VALUES (:id, :name, :color, :size, :favorite)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				color = excluded.color,
				size = excluded.size,
				favorite = excluded.favorite`, p)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) UpsertStores(ctx context.Context, stores []models.Store) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, st := range stores {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO stores (full_id, id, description, favorite)
			VALUES (:full_id, :id, :description, :favorite)
			ON CONFLICT(full_id) DO UPDATE SET
				id = excluded.id,
				description = excluded.description,
				favorite = excluded.favorite`, st)
		if err != nil {
			return fmt.Errorf("upsert store %s: %w", st.FullID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Products(ctx context.Context, favoritesOnly bool) ([]models.Product, error) {
	query := `SELECT id, name, color, size, favorite FROM products`
	if favoritesOnly {
		query += ` WHERE favorite = 1`
	}
	query += ` ORDER BY id`

	var out []models.Product
	if err := s.db.SelectContext(ctx, &out, query); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Product(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p, `SELECT id, name, color, size, favorite FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, models.ErrProductNotFound
	}
	return p, err
}

func (s *Store) Store(ctx context.Context, fullID string) (models.Store, error) {
	var st models.Store
	err := s.db.GetContext(ctx, &st, `SELECT id, full_id, description, favorite FROM stores WHERE full_id = ?`, fullID)
	if errors.Is(err, sql.ErrNoRows) {
		return st, models.ErrStoreNotFound
	}
	return st, err
}

func (s *Store) Stores(ctx context.Context, favoritesOnly bool) ([]models.Store, error) {
	query := `SELECT id, full_id, description, favorite FROM stores`
	if favoritesOnly {
		query += ` WHERE favorite = 1`
	}
	query += ` ORDER BY full_id`

	var out []models.Store
	if err := s.db.SelectContext(ctx, &out, query); err != nil {
		return nil, err
	}
	return out, nil
}

// Availability returns the last persisted quantity of every pair.
func (s *Store) Availability(ctx context.Context) (map[models.Key]int, error) {
	var rows []models.Reading
	err := s.db.SelectContext(ctx, &rows, `SELECT product_id, store_id, quantity FROM availability`)
	if err != nil {
		return nil, err
	}

	out := make(map[models.Key]int, len(rows))
	for _, r := range rows {
		out[r.Key()] = r.Quantity
	}
	return out, nil
}

// ListAvailability returns persisted rows, optionally restricted to one
// product and/or one store.
func (s *Store) ListAvailability(ctx context.Context, productID, storeID string) ([]models.StoredAvailability, error) {
	query := `SELECT product_id, store_id, quantity, updated_at FROM availability WHERE 1 = 1`
	var args []any
	if productID != "" {
		query += ` AND product_id = ?`
		args = append(args, productID)
	}
	if storeID != "" {
		query += ` AND store_id = ?`
		args = append(args, storeID)
	}
	query += ` ORDER BY product_id, store_id`

	var out []models.StoredAvailability
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Apply writes every change, and the run that produced them when run is not
// nil, inside one transaction. Nothing is persisted if any statement fails.
func (s *Store) Apply(ctx context.Context, run *models.Run, changes []models.Change) error {
	if len(changes) == 0 && run == nil {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := s.now().UTC()
	for _, c := range changes {
		r := c.Reading
		switch c.Kind {
		case models.ChangeInsert:
			_, err = tx.ExecContext(ctx,
				`INSERT INTO availability (product_id, store_id, quantity, updated_at) VALUES (?, ?, ?, ?)`,
				r.ProductID, r.StoreID, r.Quantity, now,
			)
		case models.ChangeUpdate:
			var res sql.Result
			res, err = tx.ExecContext(ctx,
				`UPDATE availability SET quantity = ?, updated_at = ? WHERE product_id = ? AND store_id = ?`,
				r.Quantity, now, r.ProductID, r.StoreID,
			)
			if err == nil {
				if n, _ := res.RowsAffected(); n != 1 {
					err = fmt.Errorf("no row to update")
				}
			}
		default:
			err = fmt.Errorf("unknown change kind %q", c.Kind)
		}
		if err != nil {
			return fmt.Errorf("%s %s@%s: %w", c.Kind, r.ProductID, r.StoreID, err)
		}
	}

	if run != nil {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO runs (id, started_at, finished_at, fetched, inserted, updated)
			VALUES (:id, :started_at, :finished_at, :fetched, :inserted, :updated)`, run)
		if err != nil {
			return fmt.Errorf("record run %s: %w", run.ID, err)
		}
	}

	return tx.Commit()
}

// NewRun allocates a run record starting now.
func (s *Store) NewRun() models.Run {
	return models.Run{ID: uuid.NewString(), StartedAt: s.now().UTC()}
}

// Runs returns the most recent runs first.
func (s *Store) Runs(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []models.Run
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, started_at, finished_at, fetched, inserted, updated
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}
