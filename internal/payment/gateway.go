// Package payment bridges checkout to the external payment processor.
package payment

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrTransactionFailed marks a sale the processor refused or could not complete
	ErrTransactionFailed = errors.New("payment transaction failed")
	ErrInvalidAmount     = errors.New("payment amount must be positive")
	ErrMissingNonce      = errors.New("payment method nonce is required")
)

// TransactionError carries the processor's own explanation of a failed sale
type TransactionError struct {
	Message string
	Err     error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrTransactionFailed.Error(), e.Message)
}

func (e *TransactionError) Is(target error) bool {
	return target == ErrTransactionFailed
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Gateway is the payment processor as seen by checkout
type Gateway interface {
	// ClientToken issues a token the storefront UI uses to collect a payment method
	ClientToken(ctx context.Context) (string, error)

	// Sale charges amount against the payment method behind nonce and submits
	// it for settlement
	Sale(ctx context.Context, amount decimal.Decimal, nonce string) (*domain.PaymentReceipt, error)
}

func validateSale(amount decimal.Decimal, nonce string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if nonce == "" {
		return ErrMissingNonce
	}
	return nil
}
