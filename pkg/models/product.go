package models

type Product struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Color    string `json:"color,omitempty" db:"color"`
	Size     string `json:"size,omitempty" db:"size"`
	Favorite bool   `json:"favorite" db:"favorite"`
}

// Store is a physical shop. FullID is the identifier the availability
// endpoint expects and the one availability rows are keyed by.
type Store struct {
	ID          string `json:"id" db:"id"`
	FullID      string `json:"full_id" db:"full_id"`
	Description string `json:"description" db:"description"`
	Favorite    bool   `json:"favorite" db:"favorite"`
}
