package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ListLatest(ctx context.Context, limit int) ([]*domain.Product, error)
	ListPage(ctx context.Context, page, perPage int) ([]*domain.Product, error)
	Count(ctx context.Context) (int, error)
	Filter(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	Search(ctx context.Context, keyword string) ([]*domain.Product, error)
	Related(ctx context.Context, productID, categoryID uuid.UUID, limit int) ([]*domain.Product, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Every read joins the category so callers get it populated; the join is
// LEFT because categories can be deleted out from under their products.
const productSelect = `
	SELECT p.id, p.name, p.slug, p.description, p.price, p.quantity, p.category_id, p.shipping,
	       p.photo_key, p.photo_content_type, p.photo_size, p.created_at, p.updated_at,
	       c.id, c.name, c.slug, c.created_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
`

// Create inserts a new product
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, slug, description, price, quantity, category_id, shipping,
			photo_key, photo_content_type, photo_size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	photoKey, photoType, photoSize := photoArgs(product.Photo)
	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.Quantity,
		product.CategoryID,
		product.Shipping,
		photoKey,
		photoType,
		photoSize,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites every mutable column of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5, quantity = $6,
		    category_id = $7, shipping = $8, photo_key = $9, photo_content_type = $10, photo_size = $11
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	photoKey, photoType, photoSize := photoArgs(product.Photo)
	err := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.Quantity,
		product.CategoryID,
		product.Shipping,
		photoKey,
		photoType,
		photoSize,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product. Orders keep their own snapshot of it.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.findOne(ctx, productSelect+` WHERE p.id = $1`, id)
}

// FindBySlug retrieves the newest product with the given slug
func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.findOne(ctx, productSelect+` WHERE p.slug = $1 ORDER BY p.created_at DESC LIMIT 1`, slug)
}

// ListLatest retrieves the newest products, capped at limit
func (r *productRepository) ListLatest(ctx context.Context, limit int) ([]*domain.Product, error) {
	return r.query(ctx, productSelect+` ORDER BY p.created_at DESC LIMIT $1`, limit)
}

// ListPage retrieves one page of products, newest first. Pages start at 1.
func (r *productRepository) ListPage(ctx context.Context, page, perPage int) ([]*domain.Product, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	return r.query(ctx, productSelect+` ORDER BY p.created_at DESC LIMIT $1 OFFSET $2`, perPage, offset)
}

// Count returns the number of products in the catalog
func (r *productRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// Filter retrieves products matching every supplied criterion
func (r *productRepository) Filter(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if len(filter.CategoryIDs) > 0 {
		placeholders := make([]string, len(filter.CategoryIDs))
		for i, id := range filter.CategoryIDs {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, id)
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf("p.category_id IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filter.Price != nil {
		conditions = append(conditions, fmt.Sprintf("p.price BETWEEN $%d AND $%d", argIndex, argIndex+1))
		args = append(args, filter.Price.Min, filter.Price.Max)
	}

	query := productSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.created_at DESC"

	return r.query(ctx, query, args...)
}

// Search matches keyword case-insensitively against name and description
func (r *productRepository) Search(ctx context.Context, keyword string) ([]*domain.Product, error) {
	query := productSelect + `
		WHERE p.name ILIKE $1 OR p.description ILIKE $1
		ORDER BY p.created_at DESC
	`

	return r.query(ctx, query, containsPattern(keyword))
}

// Related retrieves other products from the same category
func (r *productRepository) Related(ctx context.Context, productID, categoryID uuid.UUID, limit int) ([]*domain.Product, error) {
	query := productSelect + `
		WHERE p.category_id = $1 AND p.id <> $2
		ORDER BY p.created_at DESC
		LIMIT $3
	`

	return r.query(ctx, query, categoryID, productID, limit)
}

// ListByCategory retrieves every product in a category
func (r *productRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Product, error) {
	return r.query(ctx, productSelect+` WHERE p.category_id = $1 ORDER BY p.created_at DESC`, categoryID)
}

func (r *productRepository) findOne(ctx context.Context, query string, args ...interface{}) (*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to find product: %w", err)
		}
		return nil, ErrProductNotFound
	}

	return scanProduct(rows)
}

func (r *productRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func scanProduct(rows *sql.Rows) (*domain.Product, error) {
	product := &domain.Product{}
	var photo photoColumns
	var (
		categoryID        uuid.NullUUID
		categoryName      sql.NullString
		categorySlug      sql.NullString
		categoryCreatedAt sql.NullTime
	)

	targets := []interface{}{
		&product.ID,
		&product.Name,
		&product.Slug,
		&product.Description,
		&product.Price,
		&product.Quantity,
		&product.CategoryID,
		&product.Shipping,
	}
	targets = append(targets, photo.targets()...)
	targets = append(targets,
		&product.CreatedAt,
		&product.UpdatedAt,
		&categoryID,
		&categoryName,
		&categorySlug,
		&categoryCreatedAt,
	)

	if err := rows.Scan(targets...); err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	product.Photo = photo.ref()
	if categoryID.Valid {
		product.Category = &domain.Category{
			ID:        categoryID.UUID,
			Name:      categoryName.String,
			Slug:      categorySlug.String,
			CreatedAt: categoryCreatedAt.Time,
		}
	}

	return product, nil
}
