package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("basket not found")
	ErrInvalidState  = errors.New("basket cannot be checked out")
	ErrDataIntegrity = errors.New("basket references missing catalog item")
)

type NotFoundError struct {
	BasketID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("basket %d not found", e.BasketID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type InvalidStateError struct {
	BasketID int
	Reason   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("basket %d cannot be checked out: %s", e.BasketID, e.Reason)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

type DataIntegrityError struct {
	BasketID      int
	CatalogItemID int
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("basket %d references catalog item %d which does not exist", e.BasketID, e.CatalogItemID)
}

func (e *DataIntegrityError) Unwrap() error { return ErrDataIntegrity }
