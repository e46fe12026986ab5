package poller

import (
	"pesterer/pkg/models"
	"testing"

	"github.com/stretchr/testify/require"
)

func key(product, store string) models.Key {
	return models.Key{ProductID: product, StoreID: store}
}

func reading(product, store string, qty int) models.Reading {
	return models.Reading{ProductID: product, StoreID: store, Quantity: qty}
}

func TestDiff(t *testing.T) {
	previous := map[models.Key]int{
		key("123", "007AAAAA"): 0,
		key("123", "007BBBBB"): 2,
	}

	changes := Diff(previous, []models.Reading{
		reading("123", "007AAAAA", 3),
		reading("123", "007BBBBB", 2),
		reading("456", "007BBBBB", 0),
	})

	require.Equal(t, []models.Change{
		{Kind: models.ChangeUpdate, Reading: reading("123", "007AAAAA", 3), Previous: 0},
		{Kind: models.ChangeInsert, Reading: reading("456", "007BBBBB", 0)},
	}, changes)
}

func TestDiffProperties(t *testing.T) {
	quantities := []int{0, 1, 3, 17}

	for _, newQty := range quantities {
		// absent -> insert of the new value
		changes := Diff(nil, []models.Reading{reading("p", "s", newQty)})
		require.Equal(t, []models.Change{{Kind: models.ChangeInsert, Reading: reading("p", "s", newQty)}}, changes)

		for _, oldQty := range quantities {
			previous := map[models.Key]int{key("p", "s"): oldQty}
			changes := Diff(previous, []models.Reading{reading("p", "s", newQty)})

			if oldQty == newQty {
				require.Empty(t, changes)
				continue
			}
			require.Len(t, changes, 1)
			require.Equal(t, models.ChangeUpdate, changes[0].Kind)
			require.Equal(t, newQty, changes[0].Reading.Quantity)
			require.Equal(t, oldQty, changes[0].Previous)
		}
	}
}

func TestDiffCollapsesRepeatedKeys(t *testing.T) {
	previous := map[models.Key]int{key("p", "s"): 1}

	changes := Diff(previous, []models.Reading{
		reading("p", "s", 4),
		reading("q", "s", 1),
		reading("p", "s", 5),
		reading("q", "s", 2),
	})
	require.Equal(t, []models.Change{
		{Kind: models.ChangeUpdate, Reading: reading("p", "s", 5), Previous: 1},
		{Kind: models.ChangeInsert, Reading: reading("q", "s", 2)},
	}, changes)

	// a later reading equal to the persisted value cancels the earlier one
	changes = Diff(previous, []models.Reading{
		reading("p", "s", 4),
		reading("p", "s", 1),
	})
	require.Empty(t, changes)
}
