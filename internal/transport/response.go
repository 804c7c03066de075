package transport

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/blobstore"
	"storefront/internal/middleware"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// envelope is the payload of a success response
type envelope map[string]interface{}

// Gates are the middlewares handlers put in front of protected routes
type Gates struct {
	Auth      func(http.Handler) http.Handler
	Admin     func(http.Handler) http.Handler
	RateLimit func(http.Handler) http.Handler
}

func (g Gates) rateLimited() func(http.Handler) http.Handler {
	if g.RateLimit == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return g.RateLimit
}

func respondSuccess(w http.ResponseWriter, statusCode int, message string, payload envelope) {
	body := envelope{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	middleware.RespondWithJSON(w, statusCode, body)
}

func respondPhoto(w http.ResponseWriter, blob *blobstore.Blob) {
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(blob.Data)
}

type errorMapping struct {
	target  error
	status  int
	message string
}

// errorMappings turns domain errors into statuses. An empty message reuses the error text.
var errorMappings = []errorMapping{
	{repository.ErrUserAlreadyExists, http.StatusConflict, "already registered, please login"},
	{repository.ErrCategoryAlreadyExists, http.StatusConflict, "category already exists"},
	{repository.ErrUserNotFound, http.StatusNotFound, ""},
	{repository.ErrCategoryNotFound, http.StatusNotFound, ""},
	{repository.ErrProductNotFound, http.StatusNotFound, ""},
	{repository.ErrOrderNotFound, http.StatusNotFound, ""},
	{service.ErrPhotoNotFound, http.StatusNotFound, ""},
	{service.ErrEmailNotRegistered, http.StatusUnauthorized, "email is not registered"},
	{service.ErrInvalidPassword, http.StatusUnauthorized, "invalid password"},
	{service.ErrWrongEmailOrAnswer, http.StatusBadRequest, ""},
	{service.ErrSecretTooLong, http.StatusBadRequest, ""},
	{service.ErrPhotoTooLarge, http.StatusBadRequest, ""},
	{service.ErrUnsupportedPhoto, http.StatusBadRequest, ""},
	{service.ErrEmptyName, http.StatusBadRequest, ""},
	{service.ErrUnknownCategory, http.StatusBadRequest, ""},
	{service.ErrInvalidPage, http.StatusBadRequest, ""},
	{service.ErrEmptyCart, http.StatusBadRequest, ""},
	{service.ErrInvalidCartItem, http.StatusBadRequest, ""},
	{service.ErrInvalidOrderStatus, http.StatusBadRequest, ""},
	{payment.ErrMissingNonce, http.StatusBadRequest, ""},
	{payment.ErrInvalidAmount, http.StatusBadRequest, ""},
}

// respondServiceError answers err with its mapped status. Unknown errors are
// logged and answered with fallback so driver details never reach the client.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			message := m.message
			if message == "" {
				message = m.target.Error()
			}
			logger.Debug(fallback, zap.Error(err))
			middleware.RespondWithError(w, m.status, message)
			return
		}
	}

	var txErr *payment.TransactionError
	if errors.As(err, &txErr) {
		logger.Warn("Payment failed", zap.String("reason", txErr.Message))
		middleware.RespondWithError(w, http.StatusInternalServerError, txErr.Message)
		return
	}

	logger.Error(fallback, zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
}

// uuidParam reads a chi URL parameter as an id, answering 400 when malformed
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
