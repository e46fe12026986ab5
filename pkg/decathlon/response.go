package decathlon

import (
	"encoding/json"
	"fmt"
	"net/url"
	"pesterer/pkg/models"
	"strconv"
	"time"
)

// response is the body of ChooseStore_getStoresWithAvailability.
type response struct {
	PhysicalStoreList   []physicalStore        `json:"physicalStoreList"`
	ProductCountByStore map[string]json.Number `json:"productCountByStore"`
}

type physicalStore models.PhysicalStore

func (p *physicalStore) UnmarshalJSON(data []byte) error {
	var fields []string
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("physical store record: %w", err)
	}
	if len(fields) < 6 {
		return fmt.Errorf("physical store record: expected 6 fields, got %d", len(fields))
	}
	*p = physicalStore{
		Code:         fields[0],
		Name:         fields[1],
		ID:           fields[2],
		Unknown1:     fields[3],
		Unknown2:     fields[4],
		Availability: fields[5],
	}
	return nil
}

// BuildURL parameterizes the endpoint for one store and product. ts is used
// as a cache buster.
func BuildURL(endpoint, storeFullID, productID string, ts time.Time) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("storeFullId", storeFullID)
	q.Set("productId", productID)
	q.Set("_", strconv.FormatInt(ts.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Decode extracts the availability of productID at store from a response
// body. An explicit product count wins over the Y/N flag, which maps to 1/0.
func Decode(body []byte, productID string, store models.Store) (models.Reading, error) {
	reading := models.Reading{ProductID: productID, StoreID: store.FullID}

	var res response
	if err := json.Unmarshal(body, &res); err != nil {
		return reading, fmt.Errorf("decode response: %w", err)
	}

	for _, key := range []string{store.FullID, store.ID} {
		if key == "" {
			continue
		}
		// a null count decodes as "" and means no count, like a missing key
		count, ok := res.ProductCountByStore[key]
		if !ok || count == "" {
			continue
		}
		n, err := count.Int64()
		if err != nil {
			return reading, fmt.Errorf("product count for %s: %w", key, err)
		}
		reading.Quantity = int(n)
		return reading, nil
	}

	record, ok := matchStore(res.PhysicalStoreList, store)
	if !ok {
		return reading, models.ErrNoStoreRecord
	}
	switch record.Availability {
	case "Y":
		reading.Quantity = 1
	case "N":
		reading.Quantity = 0
	default:
		return reading, fmt.Errorf("%w %q", models.ErrUnknownAvailability, record.Availability)
	}
	return reading, nil
}

func matchStore(list []physicalStore, store models.Store) (physicalStore, bool) {
	if len(list) == 0 {
		return physicalStore{}, false
	}
	for _, p := range list {
		if p.ID == store.FullID || p.Code == store.FullID || (store.ID != "" && p.Code == store.ID) {
			return p, true
		}
	}
	return list[0], true
}
