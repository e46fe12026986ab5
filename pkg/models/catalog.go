package models

// Catalog resolves ids appearing in readings to their reference data.
type Catalog struct {
	Products map[string]Product
	Stores   map[string]Store
}

func NewCatalog(products []Product, stores []Store) Catalog {
	c := Catalog{
		Products: make(map[string]Product, len(products)),
		Stores:   make(map[string]Store, len(stores)),
	}
	for _, p := range products {
		c.Products[p.ID] = p
	}
	for _, s := range stores {
		c.Stores[s.FullID] = s
	}
	return c
}

// ProductName falls back to the id for unknown products.
func (c Catalog) ProductName(id string) string {
	if p, ok := c.Products[id]; ok && p.Name != "" {
		return p.Name
	}
	return id
}

// StoreName falls back to the id for unknown stores.
func (c Catalog) StoreName(fullID string) string {
	if s, ok := c.Stores[fullID]; ok && s.Description != "" {
		return s.Description
	}
	return fullID
}
