package poller

import "pesterer/pkg/models"

// Diff compares fresh readings with the persisted quantities. A missing key
// becomes an insert, a different quantity an update, an equal one nothing.
// Readings repeating a key collapse into a single change for it, the last
// reading winning.
func Diff(previous map[models.Key]int, readings []models.Reading) []models.Change {
	var changes []models.Change
	index := make(map[models.Key]int)

	for _, r := range readings {
		key := r.Key()
		old, known := previous[key]

		var change *models.Change
		switch {
		case !known:
			change = &models.Change{Kind: models.ChangeInsert, Reading: r}
		case old != r.Quantity:
			change = &models.Change{Kind: models.ChangeUpdate, Reading: r, Previous: old}
		}

		i, seen := index[key]
		switch {
		case change == nil && seen:
			// back to the persisted value, drop the earlier change
			changes[i].Kind = ""
		case change == nil:
		case seen:
			changes[i] = *change
		default:
			index[key] = len(changes)
			changes = append(changes, *change)
		}
	}

	out := changes[:0]
	for _, c := range changes {
		if c.Kind != "" {
			out = append(out, c)
		}
	}
	return out
}
