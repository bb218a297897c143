package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sofuled/catalog-service/internal/model"
)

var (
	// ErrNotFound is returned when no record matches the requested ID.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientInventory is returned by Sell when the product holds
	// fewer units than requested. The transaction is rolled back and the
	// stored inventory is left unchanged.
	ErrInsufficientInventory = errors.New("not enough inventory available")
)

// ProductRepository defines persistence operations over product records.
// Every method scopes its store access to the single call; only Sell
// spans multiple statements and runs them in one transaction.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) (*model.Product, error)
	List(ctx context.Context, query Query) ([]model.Product, Pagination, error)
	FindByID(ctx context.Context, id int64) (*model.Product, error)
	FindByName(ctx context.Context, name string, excludeID int64) (*model.Product, error)
	Update(ctx context.Context, id int64, changes ProductChanges) (*model.Product, error)
	DeleteByID(ctx context.Context, id int64) error
	Sell(ctx context.Context, id int64, quantity int64, event *model.Event) error
}

// EventRepository defines persistence operations over outbox events.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	ListPending(ctx context.Context, limit int) ([]model.Event, error)
	UpdateStatus(ctx context.Context, eventID uuid.UUID, status model.EventStatus) error
}

// ProductChanges carries a partial update. A nil field means the column
// is left untouched; a non-nil field replaces the stored value. The
// nullable columns additionally support an explicit clear to NULL,
// which keeps "field omitted" distinct from "field cleared".
type ProductChanges struct {
	Name        *string
	Description *string
	Price       *float64
	Inventory   *int64
	ImageURL    *string

	// ClearDescription and ClearImageURL set their column to NULL. A
	// supplied value takes precedence over a clear.
	ClearDescription bool
	ClearImageURL    bool
}

// Empty reports whether no fields were supplied.
func (c ProductChanges) Empty() bool {
	return c.Name == nil && c.Description == nil && c.Price == nil &&
		c.Inventory == nil && c.ImageURL == nil &&
		!c.ClearDescription && !c.ClearImageURL
}

// UniqueConstraintError represents a database unique constraint violation error.
type UniqueConstraintError struct {
	Detail string
}

func (u *UniqueConstraintError) Error() string {
	return "resource must be unique: " + u.Detail
}
