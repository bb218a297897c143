package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/sofuled/catalog-service/internal/metrics"
	"github.com/sofuled/catalog-service/internal/model"
	"github.com/sofuled/catalog-service/internal/repository"
	"github.com/sofuled/catalog-service/internal/sqs"
)

// ProductService implements the catalog operations on top of the
// repositories. Validation failures never reach the store; duplicate
// names are rejected both by the pre-check here and, authoritatively, by
// the unique index on the products table.
type ProductService struct {
	repo      repository.ProductRepository
	eventRepo repository.EventRepository
}

// NewProductService creates a new ProductService. eventRepo may be nil,
// in which case lifecycle events are not recorded.
func NewProductService(repo repository.ProductRepository, eventRepo repository.EventRepository) *ProductService {
	return &ProductService{
		repo:      repo,
		eventRepo: eventRepo,
	}
}

// CreateProductInput carries the validated-at-the-boundary create payload.
type CreateProductInput struct {
	Name        string
	Description *string
	Price       float64
	Inventory   int64
	ImageURL    *string
}

// ListProducts returns a page of products and the pagination metadata.
func (ps *ProductService) ListProducts(ctx context.Context, query repository.Query) ([]model.Product, repository.Pagination, error) {
	return ps.repo.List(ctx, query)
}

// GetProduct returns a single product by ID.
func (ps *ProductService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return ps.repo.FindByID(ctx, id)
}

// CreateProduct validates the input, enforces name uniqueness and
// inserts the record, returning the stored row.
func (ps *ProductService) CreateProduct(ctx context.Context, in CreateProductInput) (*model.Product, error) {
	if in.Name == "" {
		return nil, NewValidationError("Name must not be empty")
	}
	if in.Price < 0 {
		return nil, NewValidationError("Price must be a non-negative number")
	}
	if in.Inventory < 0 {
		return nil, NewValidationError("Inventory must be a non-negative integer")
	}
	if err := validateImageURL(in.ImageURL); err != nil {
		return nil, err
	}
	if err := ps.checkNameUnique(ctx, in.Name, 0); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Inventory:   in.Inventory,
		ImageURL:    in.ImageURL,
	}

	created, err := ps.repo.Create(ctx, product)
	if err != nil {
		// The pre-check above cannot close the race against a concurrent
		// create with the same name; the unique index can.
		var uniqueErr *repository.UniqueConstraintError
		if errors.As(err, &uniqueErr) {
			return nil, NewValidationError("Product name must be unique")
		}
		return nil, err
	}

	metrics.ProductsCreated.Inc()
	ps.recordEvent(ctx, model.EventTypeProductCreated, sqs.ProductMessage{
		Action:    model.EventTypeProductCreated,
		ProductID: created.ID,
		Name:      created.Name,
		Price:     created.Price,
	})

	return created, nil
}

// UpdateProduct applies a partial update after validating the supplied
// fields, returning the stored row after the write.
func (ps *ProductService) UpdateProduct(ctx context.Context, id int64, changes repository.ProductChanges) (*model.Product, error) {
	if changes.Empty() {
		return nil, NewValidationError("No fields to update")
	}
	if changes.Name != nil && *changes.Name == "" {
		return nil, NewValidationError("Name must not be empty")
	}
	if changes.Price != nil && *changes.Price < 0 {
		return nil, NewValidationError("Price must be a non-negative number")
	}
	if changes.Inventory != nil && *changes.Inventory < 0 {
		return nil, NewValidationError("Inventory must be a non-negative integer")
	}
	if err := validateImageURL(changes.ImageURL); err != nil {
		return nil, err
	}
	if changes.Name != nil {
		if err := ps.checkNameUnique(ctx, *changes.Name, id); err != nil {
			return nil, err
		}
	}

	updated, err := ps.repo.Update(ctx, id, changes)
	if err != nil {
		var uniqueErr *repository.UniqueConstraintError
		if errors.As(err, &uniqueErr) {
			return nil, NewValidationError("Product name must be unique")
		}
		return nil, err
	}

	metrics.ProductsUpdated.Inc()
	ps.recordEvent(ctx, model.EventTypeProductUpdated, sqs.ProductMessage{
		Action:    model.EventTypeProductUpdated,
		ProductID: updated.ID,
		Name:      updated.Name,
		Price:     updated.Price,
	})

	return updated, nil
}

// DeleteProduct removes a product by ID.
func (ps *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	// Read the record first so the deletion event carries its details.
	product, err := ps.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := ps.repo.DeleteByID(ctx, id); err != nil {
		return err
	}

	metrics.ProductsDeleted.Inc()
	ps.recordEvent(ctx, model.EventTypeProductDeleted, sqs.ProductMessage{
		Action:    model.EventTypeProductDeleted,
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
	})

	return nil
}

// SellProduct decrements the product's inventory by quantity. The check
// and the decrement run as one transaction in the repository, so two
// concurrent sells can never jointly overdraw the stock. The sale event
// is recorded in the outbox within the same transaction.
func (ps *ProductService) SellProduct(ctx context.Context, id int64, quantity int64) error {
	if quantity <= 0 {
		return NewValidationError("Quantity must be a positive integer")
	}

	var event *model.Event
	if ps.eventRepo != nil {
		msg := sqs.ProductMessage{
			Action:    model.EventTypeProductSold,
			ProductID: id,
			Quantity:  quantity,
		}
		var err error
		event, err = newOutboxEvent(model.EventTypeProductSold, msg)
		if err != nil {
			return fmt.Errorf("failed to build sale event: %w", err)
		}
	}

	if err := ps.repo.Sell(ctx, id, quantity, event); err != nil {
		if errors.Is(err, repository.ErrInsufficientInventory) {
			metrics.SalesRejected.Inc()
		}
		return err
	}

	metrics.SalesCompleted.Inc()
	metrics.UnitsSold.Add(float64(quantity))

	return nil
}

func (ps *ProductService) checkNameUnique(ctx context.Context, name string, excludeID int64) error {
	_, err := ps.repo.FindByName(ctx, name, excludeID)
	if err == nil {
		return NewValidationError("Product name must be unique")
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// recordEvent writes a lifecycle event to the outbox. Failures are
// logged and do not fail the request; the write itself already
// succeeded.
func (ps *ProductService) recordEvent(ctx context.Context, eventType string, msg sqs.ProductMessage) {
	if ps.eventRepo == nil {
		return
	}

	event, err := newOutboxEvent(eventType, msg)
	if err != nil {
		slog.Error("Failed to build outbox event", slog.Any("err", err), slog.String("event_type", eventType))
		return
	}
	if _, err := ps.eventRepo.Create(ctx, event); err != nil {
		slog.Error("Failed to record outbox event",
			slog.Any("err", err),
			slog.String("event_type", eventType),
			slog.Int64("product_id", msg.ProductID))
	}
}

func newOutboxEvent(eventType string, msg sqs.ProductMessage) (*model.Event, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return &model.Event{
		EventType: eventType,
		EventData: data,
		Status:    model.EventStatusPending,
	}, nil
}

func validateImageURL(imageURL *string) error {
	if imageURL == nil || *imageURL == "" {
		return nil
	}
	parsed, err := url.ParseRequestURI(*imageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return NewValidationError("Invalid image URL")
	}
	return nil
}
