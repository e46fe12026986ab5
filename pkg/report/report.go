package report

import (
	"fmt"
	"io"
	"pesterer/pkg/models"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func Changes(w io.Writer, catalog models.Catalog, changes []models.Change) {
	if len(changes) == 0 {
		fmt.Fprintln(w, "No availability changes.")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Product", "Store", "Change", "Before", "Now", "Status"})
	for _, c := range changes {
		before := "-"
		if c.Kind == models.ChangeUpdate {
			before = fmt.Sprint(c.Previous)
		}
		t.AppendRow(table.Row{
			productLabel(catalog, c.Reading.ProductID),
			catalog.StoreName(c.Reading.StoreID),
			string(c.Kind),
			before,
			c.Reading.Quantity,
			Status(c.Reading),
		})
	}
	t.Render()
}

func Availability(w io.Writer, catalog models.Catalog, rows []models.StoredAvailability) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Product", "Store", "Quantity", "Status", "Updated"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			productLabel(catalog, r.ProductID),
			catalog.StoreName(r.StoreID),
			r.Quantity,
			Status(r.Reading),
			r.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	t.Render()
}

func Products(w io.Writer, products []models.Product) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Color", "Size", "Favorite"})
	for _, p := range products {
		t.AppendRow(table.Row{p.ID, p.Name, p.Color, p.Size, star(p.Favorite)})
	}
	t.Render()
}

func Stores(w io.Writer, stores []models.Store) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Full ID", "Description", "Favorite"})
	for _, s := range stores {
		t.AppendRow(table.Row{s.ID, s.FullID, s.Description, star(s.Favorite)})
	}
	t.Render()
}

// Status renders a reading as in stock or sold out.
func Status(r models.Reading) string {
	if r.Available() {
		return "in stock"
	}
	return "sold out"
}

func productLabel(catalog models.Catalog, id string) string {
	p, ok := catalog.Products[id]
	if !ok {
		return id
	}
	label := catalog.ProductName(id)
	if p.Color != "" || p.Size != "" {
		label = fmt.Sprintf("%s (%s %s)", label, p.Color, p.Size)
	}
	return label
}

func star(b bool) string {
	if b {
		return "*"
	}
	return ""
}
