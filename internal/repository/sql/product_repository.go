package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sofuled/catalog-service/internal/model"
	"github.com/sofuled/catalog-service/internal/repository"
)

const productColumns = "id, name, description, price, inventory, image_url, created_at, updated_at"

// ProductRepository implements repository.ProductRepository backed by
// PostgreSQL. Every method runs against the pool directly; Sell opens
// its own transaction and hands it to the event repository.
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new ProductRepository instance.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var product model.Product
	var description, imageURL sql.NullString
	err := row.Scan(
		&product.ID, &product.Name, &description, &product.Price,
		&product.Inventory, &imageURL, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		product.Description = &description.String
	}
	if imageURL.Valid {
		product.ImageURL = &imageURL.String
	}
	return &product, nil
}

// Create inserts a new product and returns the stored row, including the
// generated ID and timestamps.
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	query := `INSERT INTO products (name, description, price, inventory, image_url)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING ` + productColumns

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, product.Name, product.Description, product.Price, product.Inventory, product.ImageURL)
	created, err := scanProduct(row)
	if err != nil {
		if detail, ok := isUniqueViolation(err); ok {
			return nil, &repository.UniqueConstraintError{Detail: detail}
		}
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	return created, nil
}

// List retrieves a page of products matching the query along with
// pagination metadata computed from the total matching count.
func (r *ProductRepository) List(ctx context.Context, query repository.Query) ([]model.Product, repository.Pagination, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + productColumns + " FROM products WHERE 1=1")

	var args []interface{}
	argIndex := 1

	// Apply the name filter
	if query.NameFilter != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND name ILIKE $%d", argIndex))
		args = append(args, "%"+query.NameFilter+"%")
		argIndex++
	}

	// SortBy and Order only ever hold allow-listed values; user input
	// never reaches the SQL text.
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s %s, id DESC", query.SortBy, query.Order))

	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1))
	args = append(args, query.Limit, query.Offset())

	stmt, err := r.db.PrepareContext(ctx, queryBuilder.String())
	if err != nil {
		return nil, repository.Pagination{}, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, repository.Pagination{}, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, repository.Pagination{}, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err = rows.Err(); err != nil {
		return nil, repository.Pagination{}, fmt.Errorf("error iterating rows: %w", err)
	}

	total, err := r.count(ctx, query.NameFilter)
	if err != nil {
		return nil, repository.Pagination{}, err
	}

	return products, repository.NewPagination(total, query.Page, query.Limit), nil
}

func (r *ProductRepository) count(ctx context.Context, nameFilter string) (int64, error) {
	query := "SELECT COUNT(*) FROM products"
	var args []interface{}
	if nameFilter != "" {
		query += " WHERE name ILIKE $1"
		args = append(args, "%"+nameFilter+"%")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// FindByID retrieves a single product by ID.
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = $1"

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	product, err := scanProduct(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return product, nil
}

// FindByName retrieves a product by exact, case-sensitive name match.
// When excludeID is non-zero, the row with that ID is ignored, which is
// what the update path needs to allow a record to keep its own name.
func (r *ProductRepository) FindByName(ctx context.Context, name string, excludeID int64) (*model.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE name = $1"
	args := []interface{}{name}
	if excludeID != 0 {
		query += " AND id != $2"
		args = append(args, excludeID)
	}

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	product, err := scanProduct(stmt.QueryRowContext(ctx, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return product, nil
}

// Update applies a partial update and returns the stored row after the
// write. Only supplied fields are touched; updated_at is refreshed as
// part of the same statement.
func (r *ProductRepository) Update(ctx context.Context, id int64, changes repository.ProductChanges) (*model.Product, error) {
	var setClauses []string
	var args []interface{}
	argIndex := 1

	addClause := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if changes.Name != nil {
		addClause("name", *changes.Name)
	}
	switch {
	case changes.Description != nil:
		addClause("description", *changes.Description)
	case changes.ClearDescription:
		setClauses = append(setClauses, "description = NULL")
	}
	if changes.Price != nil {
		addClause("price", *changes.Price)
	}
	if changes.Inventory != nil {
		addClause("inventory", *changes.Inventory)
	}
	switch {
	case changes.ImageURL != nil:
		addClause("image_url", *changes.ImageURL)
	case changes.ClearImageURL:
		setClauses = append(setClauses, "image_url = NULL")
	}

	if len(setClauses) == 0 {
		return nil, errors.New("no fields to update")
	}

	setClauses = append(setClauses, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argIndex, productColumns)

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	updated, err := scanProduct(stmt.QueryRowContext(ctx, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if detail, ok := isUniqueViolation(err); ok {
			return nil, &repository.UniqueConstraintError{Detail: detail}
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return updated, nil
}

// DeleteByID removes a product row by ID.
func (r *ProductRepository) DeleteByID(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Sell decrements a product's inventory by quantity inside a single
// transaction. The row is locked on the read so that concurrent sells of
// the same product serialize; the decrement is additionally guarded by
// an inventory >= quantity condition so the stored value can never go
// negative. When event is non-nil it is recorded in the outbox as part
// of the same transaction.
func (r *ProductRepository) Sell(ctx context.Context, id int64, quantity int64, event *model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback is a no-op once the transaction has been committed; the
	// deferred call guarantees the transaction is released on every exit
	// path, including panics.
	defer tx.Rollback() //nolint:errcheck

	var inventory int64
	err = tx.QueryRowContext(ctx, `SELECT inventory FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&inventory)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to query inventory: %w", err)
	}

	if inventory < quantity {
		return repository.ErrInsufficientInventory
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE products SET inventory = inventory - $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND inventory >= $1`,
		quantity, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update inventory: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// The row lock makes this unreachable, but the conditional update
		// keeps the invariant even if the isolation level changes.
		return repository.ErrInsufficientInventory
	}

	if event != nil {
		eventRepo := &EventRepository{db: r.db, txn: tx}
		if _, err := eventRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to record sale event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
