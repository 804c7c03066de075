package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderStatusRequest represents the order status update payload
type OrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderHandler handles HTTP requests for order history and fulfilment
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// RegisterRoutes registers the order routes on the /auth group
func (h *OrderHandler) RegisterRoutes(r chi.Router, gates Gates) {
	r.Group(func(r chi.Router) {
		r.Use(gates.Auth)
		r.Get("/orders", h.Own)

		r.Group(func(r chi.Router) {
			r.Use(gates.Admin)
			r.Get("/all-orders", h.All)
			r.Put("/order-status/{orderId}", h.UpdateStatus)
		})
	})
}

// Own lists the caller's orders
func (h *OrderHandler) Own(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orders.BuyerOrders(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "error while getting orders")
		return
	}

	respondSuccess(w, http.StatusOK, "", envelope{"orders": orders})
}

// All lists every order for administrators
func (h *OrderHandler) All(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.AllOrders(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "error while getting orders")
		return
	}

	respondSuccess(w, http.StatusOK, "", envelope{"orders": orders})
}

// UpdateStatus moves an order to a new lifecycle status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "orderId")
	if !ok {
		return
	}

	var req OrderStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err, "error while updating order")
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)
	respondSuccess(w, http.StatusOK, "order status updated", envelope{"order": order})
}
