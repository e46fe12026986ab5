// Package csvload reads the semicolon-delimited product and store lists.
// The first line of each file is a header and is skipped.
package csvload

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"pesterer/pkg/models"
	"strings"
)

const bom = "\uFEFF"

func ProductsFile(path string) ([]models.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Products(f)
}

func StoresFile(path string) ([]models.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Stores(f)
}

// Products parses `id;name;color;size[;favorite]` rows.
func Products(r io.Reader) ([]models.Product, error) {
	var out []models.Product
	err := readRows(r, 4, func(line int, row []string) error {
		p := models.Product{
			ID:    row[0],
			Name:  row[1],
			Color: row[2],
			Size:  row[3],
		}
		p.Favorite = truthy(column(row, 4))
		if p.ID == "" {
			return fmt.Errorf("line %d: empty product id", line)
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// Stores parses `id;full_id;description[;favorite]` rows. A missing full id
// falls back to the short id.
func Stores(r io.Reader) ([]models.Store, error) {
	var out []models.Store
	err := readRows(r, 1, func(line int, row []string) error {
		s := models.Store{
			ID:          row[0],
			FullID:      column(row, 1),
			Description: column(row, 2),
			Favorite:    truthy(column(row, 3)),
		}
		if s.FullID == "" {
			s.FullID = s.ID
		}
		if s.FullID == "" {
			return fmt.Errorf("line %d: empty store id", line)
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func readRows(r io.Reader, minColumns int, fn func(line int, row []string) error) error {
	br := bufio.NewReader(r)
	if _, err := br.ReadString('\n'); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	reader := csv.NewReader(br)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		// the header line was consumed before the csv reader saw the input
		line, _ := reader.FieldPos(0)
		line++
		for i := range row {
			row[i] = strings.TrimSpace(strings.TrimPrefix(row[i], bom))
		}
		if len(row) == 1 && row[0] == "" {
			continue
		}
		if len(row) < minColumns {
			return fmt.Errorf("line %d: expected at least %d columns, got %d", line, minColumns, len(row))
		}
		if err := fn(line, row); err != nil {
			return err
		}
	}
}

func column(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "x", "*":
		return true
	}
	return false
}
