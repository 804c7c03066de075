package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderSelect = `
	SELECT o.id, o.items, o.payment, o.buyer_id, o.status, o.total, o.created_at, o.updated_at,
	       u.name
	FROM orders o
	LEFT JOIN users u ON u.id = o.buyer_id
`

// Create inserts a new order with its item snapshot and payment receipt
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	payment, err := json.Marshal(order.Payment)
	if err != nil {
		return fmt.Errorf("failed to encode payment receipt: %w", err)
	}

	query := `
		INSERT INTO orders (id, buyer_id, items, payment, total, status, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		order.ID,
		order.BuyerID,
		string(items),
		string(payment),
		order.Total,
		string(order.Status),
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// FindByID retrieves an order with its buyer summary
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	orders, err := r.query(ctx, orderSelect+` WHERE o.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}
	return orders[0], nil
}

// ListByBuyer retrieves a buyer's orders, newest first
func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error) {
	return r.query(ctx, orderSelect+` WHERE o.buyer_id = $1 ORDER BY o.created_at DESC`, buyerID)
}

// ListAll retrieves every order, newest first
func (r *orderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return r.query(ctx, orderSelect+` ORDER BY o.created_at DESC`)
}

// UpdateStatus overwrites an order's status and returns the updated order
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := expectOneRow(result, ErrOrderNotFound); err != nil {
		return nil, err
	}

	return r.FindByID(ctx, id)
}

func (r *orderRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order := &domain.Order{}
		var (
			items     []byte
			payment   []byte
			status    string
			buyerName sql.NullString
		)

		err := rows.Scan(
			&order.ID,
			&items,
			&payment,
			&order.BuyerID,
			&status,
			&order.Total,
			&order.CreatedAt,
			&order.UpdatedAt,
			&buyerName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		if err := json.Unmarshal(items, &order.Items); err != nil {
			return nil, fmt.Errorf("failed to decode order items: %w", err)
		}
		if err := json.Unmarshal(payment, &order.Payment); err != nil {
			return nil, fmt.Errorf("failed to decode payment receipt: %w", err)
		}

		order.Status = domain.OrderStatus(status)
		if buyerName.Valid {
			order.Buyer = &domain.UserSummary{ID: order.BuyerID, Name: buyerName.String}
		}

		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}
