package models

import "errors"

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrStoreNotFound       = errors.New("store not found")
	ErrNoStoreRecord       = errors.New("response has no physical store record")
	ErrUnknownAvailability = errors.New("unknown availability code")
)
