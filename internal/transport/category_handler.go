package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryRequest represents the category create and update payload
type CategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(catalog service.CatalogService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers the category routes on the /category group
func (h *CategoryHandler) RegisterRoutes(r chi.Router, gates Gates) {
	r.Get("/get-category", h.List)
	r.Get("/single-category/{slug}", h.GetBySlug)

	r.Group(func(r chi.Router) {
		r.Use(gates.Auth, gates.Admin)
		r.Post("/create-category", h.Create)
		r.Put("/update-category/{id}", h.Update)
		r.Delete("/delete-category/{id}", h.Delete)
	})
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, h.logger, err, "error in category")
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()), zap.String("slug", category.Slug))
	respondSuccess(w, http.StatusCreated, "new category created", envelope{"category": category})
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	category, err := h.catalog.UpdateCategory(r.Context(), id, req.Name)
	if err != nil {
		respondServiceError(w, h.logger, err, "error while updating category")
		return
	}

	respondSuccess(w, http.StatusOK, "category updated successfully", envelope{"category": category})
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "error while getting all categories")
		return
	}

	respondSuccess(w, http.StatusOK, "all categories list", envelope{"category": categories})
}

func (h *CategoryHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.GetCategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondServiceError(w, h.logger, err, "error while getting single category")
		return
	}

	respondSuccess(w, http.StatusOK, "get single category successfully", envelope{"category": category})
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "error while deleting category")
		return
	}

	h.logger.Info("Category deleted", zap.String("category_id", id.String()))
	respondSuccess(w, http.StatusOK, "category deleted successfully", nil)
}
