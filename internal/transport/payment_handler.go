package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckoutRequest represents the checkout payload
type CheckoutRequest struct {
	Cart  []domain.OrderItem `json:"cart"`
	Nonce string             `json:"nonce"`
}

// PaymentHandler handles the Braintree checkout routes
type PaymentHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(orders service.OrderService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{orders: orders, logger: logger}
}

// RegisterRoutes registers the payment routes on the /product group
func (h *PaymentHandler) RegisterRoutes(r chi.Router, gates Gates) {
	r.Group(func(r chi.Router) {
		r.Use(gates.Auth)
		r.Get("/braintree/token", h.Token)
		r.Post("/braintree/payment", h.Checkout)
	})
}

// Token issues a client token for the payment form
func (h *PaymentHandler) Token(w http.ResponseWriter, r *http.Request) {
	token, err := h.orders.ClientToken(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to generate client token")
		return
	}

	respondSuccess(w, http.StatusOK, "", envelope{"clientToken": token})
}

// Checkout charges the cart and records the order
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	order, err := h.orders.Checkout(r.Context(), buyerID, req.Cart, req.Nonce)
	if err != nil {
		respondServiceError(w, h.logger, err, "payment could not be completed")
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("buyer_id", buyerID.String()),
		zap.String("total", order.Total.StringFixed(2)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"order": order,
	})
}
