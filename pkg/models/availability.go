package models

import "time"

// Key identifies one persisted availability row.
type Key struct {
	ProductID string
	StoreID   string
}

// Reading is the normalized answer of the endpoint for one product at one
// store. StoreID holds the store's FullID.
type Reading struct {
	ProductID string `json:"product_id" db:"product_id"`
	StoreID   string `json:"store_id" db:"store_id"`
	Quantity  int    `json:"quantity" db:"quantity"`
}

func (r Reading) Key() Key {
	return Key{ProductID: r.ProductID, StoreID: r.StoreID}
}

func (r Reading) Available() bool {
	return r.Quantity > 0
}

type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
)

// Change is one write produced by comparing a fresh reading with the
// persisted one. Previous is only meaningful for updates.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	Reading  Reading    `json:"reading"`
	Previous int        `json:"previous"`
}

// StoredAvailability is a persisted availability row.
type StoredAvailability struct {
	Reading
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PhysicalStore is the positional per-store record returned by the
// endpoint: [code, name, id, ?, ?, availability].
type PhysicalStore struct {
	Code         string
	Name         string
	ID           string
	Unknown1     string
	Unknown2     string
	Availability string
}

type Run struct {
	ID         string    `json:"id" db:"id"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
	Fetched    int       `json:"fetched" db:"fetched"`
	Inserted   int       `json:"inserted" db:"inserted"`
	Updated    int       `json:"updated" db:"updated"`
}
