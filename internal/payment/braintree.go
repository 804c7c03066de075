package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BraintreeGateway implements Gateway on the Braintree API
type BraintreeGateway struct {
	client *braintree.Braintree
	logger *zap.Logger
}

// NewBraintreeGateway builds a gateway from configuration credentials
func NewBraintreeGateway(cfg config.BraintreeConfig, logger *zap.Logger) (*BraintreeGateway, error) {
	env, err := environment(cfg.Environment)
	if err != nil {
		return nil, err
	}

	if cfg.MerchantID == "" || cfg.PublicKey == "" || cfg.PrivateKey == "" {
		return nil, errors.New("braintree credentials are not configured")
	}

	return &BraintreeGateway{
		client: braintree.New(env, cfg.MerchantID, cfg.PublicKey, cfg.PrivateKey),
		logger: logger,
	}, nil
}

func environment(name string) (braintree.Environment, error) {
	switch strings.ToLower(name) {
	case "", "sandbox":
		return braintree.Sandbox, nil
	case "production":
		return braintree.Production, nil
	default:
		return braintree.Sandbox, fmt.Errorf("unknown braintree environment %q", name)
	}
}

func (g *BraintreeGateway) ClientToken(ctx context.Context) (string, error) {
	token, err := g.client.ClientToken().Generate(ctx)
	if err != nil {
		g.logger.Error("Failed to generate client token", zap.Error(err))
		return "", fmt.Errorf("failed to generate client token: %w", err)
	}
	return token, nil
}

func (g *BraintreeGateway) Sale(ctx context.Context, amount decimal.Decimal, nonce string) (*domain.PaymentReceipt, error) {
	if err := validateSale(amount, nonce); err != nil {
		return nil, err
	}

	// Braintree takes the amount as unscaled cents
	cents := amount.Round(2).Shift(2).IntPart()

	tx, err := g.client.Transaction().Create(ctx, &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(cents, 2),
		PaymentMethodNonce: nonce,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	})
	if err != nil {
		var btErr *braintree.BraintreeError
		if errors.As(err, &btErr) {
			g.logger.Warn("Sale declined by processor",
				zap.String("amount", amount.StringFixed(2)),
				zap.String("reason", btErr.Error()),
			)
			return nil, &TransactionError{Message: btErr.Error(), Err: err}
		}
		g.logger.Error("Sale request failed", zap.Error(err))
		return nil, &TransactionError{Message: "payment processor unavailable", Err: err}
	}

	receipt := &domain.PaymentReceipt{
		TransactionID:  tx.Id,
		Status:         string(tx.Status),
		Amount:         amount.StringFixed(2),
		Currency:       tx.CurrencyISOCode,
		ProcessorReply: tx.ProcessorResponseText,
		Success:        true,
		CreatedAt:      time.Now().UTC(),
	}
	if tx.CreatedAt != nil {
		receipt.CreatedAt = tx.CreatedAt.UTC()
	}

	g.logger.Info("Sale submitted for settlement",
		zap.String("transaction_id", receipt.TransactionID),
		zap.String("status", receipt.Status),
		zap.String("amount", receipt.Amount),
	)

	return receipt, nil
}
