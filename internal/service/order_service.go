package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidCartItem    = errors.New("cart item price must not be negative")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

// OrderService defines the interface for checkout and order management
type OrderService interface {
	ClientToken(ctx context.Context) (string, error)
	// Checkout charges the cart total and records one order on success.
	// A failed sale records nothing.
	Checkout(ctx context.Context, buyerID uuid.UUID, cart []domain.OrderItem, nonce string) (*domain.Order, error)
	BuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error)
	AllOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*domain.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	gateway   payment.Gateway
	logger    *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository, gateway payment.Gateway, logger *zap.Logger) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		gateway:   gateway,
		logger:    logger,
	}
}

func (s *orderService) ClientToken(ctx context.Context) (string, error) {
	return s.gateway.ClientToken(ctx)
}

// CartTotal sums item prices exactly
func CartTotal(cart []domain.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range cart {
		total = total.Add(item.Price)
	}
	return total
}

func (s *orderService) Checkout(ctx context.Context, buyerID uuid.UUID, cart []domain.OrderItem, nonce string) (*domain.Order, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	if nonce == "" {
		return nil, payment.ErrMissingNonce
	}
	for _, item := range cart {
		if item.Price.IsNegative() {
			return nil, ErrInvalidCartItem
		}
	}

	total := CartTotal(cart)

	receipt, err := s.gateway.Sale(ctx, total, nonce)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:        uuid.New(),
		Items:     cart,
		Payment:   *receipt,
		BuyerID:   buyerID,
		Status:    domain.OrderStatusPending,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		// The sale already settled; the transaction id is what reconciles it
		s.logger.Error("Failed to record paid order",
			zap.String("buyer_id", buyerID.String()),
			zap.String("transaction_id", receipt.TransactionID),
			zap.String("total", total.StringFixed(2)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, nil
}

func (s *orderService) BuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error) {
	orders, err := s.orderRepo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) AllOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*domain.Order, error) {
	parsed, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrderStatus, err)
	}

	order, err := s.orderRepo.UpdateStatus(ctx, orderID, parsed)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return order, nil
}
