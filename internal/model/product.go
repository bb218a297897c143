package model

import "time"

// Product represents a catalog record with its sellable inventory.
// The ID is generated by the database; Description and ImageURL are
// nullable columns, represented as nil pointers when absent.
type Product struct {
	ID          int64
	Name        string
	Description *string
	Price       float64
	Inventory   int64
	ImageURL    *string
	UpdatedAt   time.Time
	CreatedAt   time.Time
}
