package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// ProductForm holds the raw product form fields before coercion
type ProductForm struct {
	Name        string `form:"name" validate:"required"`
	Description string `form:"description" validate:"required"`
	Price       string `form:"price" validate:"required"`
	Category    string `form:"category" validate:"required"`
	Quantity    string `form:"quantity" validate:"required"`
	Shipping    string `form:"shipping"`
}

// FilterRequest represents the catalog filter payload. Radio is an
// inclusive [min, max] price range.
type FilterRequest struct {
	Checked []string  `json:"checked"`
	Radio   []float64 `json:"radio" validate:"omitempty,len=2"`
}

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	catalog       service.CatalogService
	maxPhotoBytes int64
	logger        *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, maxPhotoBytes int64, logger *zap.Logger) *ProductHandler {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = service.DefaultMaxPhotoBytes
	}
	return &ProductHandler{catalog: catalog, maxPhotoBytes: maxPhotoBytes, logger: logger}
}

// RegisterRoutes registers the product routes on the /product group
func (h *ProductHandler) RegisterRoutes(r chi.Router, gates Gates) {
	r.Get("/get-product", h.Latest)
	r.Get("/get-product/{slug}", h.GetBySlug)
	r.Get("/product-photo/{pid}", h.Photo)
	r.Post("/product-filters", h.Filter)
	r.Get("/product-count", h.Count)
	r.Get("/product-list/{page}", h.Page)
	r.Get("/search/{keyword}", h.Search)
	r.Get("/related-product/{pid}/{cid}", h.Related)
	r.Get("/product-category/{slug}", h.ByCategory)

	r.Group(func(r chi.Router) {
		r.Use(gates.Auth, gates.Admin)
		r.Post("/create-product", h.Create)
		r.Put("/update-product/{pid}", h.Update)
		r.Delete("/delete-product/{pid}", h.Delete)
	})
}

// productInput parses and validates the product form, answering the request on failure
func (h *ProductHandler) productInput(w http.ResponseWriter, r *http.Request) (service.ProductInput, bool) {
	if !parseForm(w, r, h.maxPhotoBytes) {
		return service.ProductInput{}, false
	}

	form := ProductForm{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       r.FormValue("price"),
		Category:    r.FormValue("category"),
		Quantity:    r.FormValue("quantity"),
		Shipping:    r.FormValue("shipping"),
	}
	if err := middleware.ValidateRequest(&form); err != nil {
		middleware.RespondWithRequestError(w, err)
		return service.ProductInput{}, false
	}

	price, err := cast.ToFloat64E(form.Price)
	if err == nil {
		// ParseFloat alone also accepts NaN, Inf and exponents
		err = middleware.ValidateVar(form.Price, "numeric")
	}
	if err != nil || price < 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "price must be a non-negative number")
		return service.ProductInput{}, false
	}

	quantity, err := decimalInt(form.Quantity)
	if err != nil || quantity < 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "quantity must be a non-negative integer")
		return service.ProductInput{}, false
	}

	var shipping bool
	if form.Shipping != "" {
		if shipping, err = cast.ToBoolE(form.Shipping); err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "shipping must be a boolean")
			return service.ProductInput{}, false
		}
	}

	categoryID, err := uuid.Parse(form.Category)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category")
		return service.ProductInput{}, false
	}

	photo, err := readPhoto(r, h.maxPhotoBytes)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, middleware.ErrMalformedBody.Error())
		return service.ProductInput{}, false
	}

	return service.ProductInput{
		Name:        form.Name,
		Description: form.Description,
		Price:       price,
		CategoryID:  categoryID,
		Quantity:    quantity,
		Shipping:    shipping,
		Photo:       photo,
	}, true
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.productInput(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), input)
	if err != nil {
		respondServiceError(w, h.logger, err, "error in creating product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("slug", product.Slug))
	respondSuccess(w, http.StatusCreated, "product created successfully", envelope{"products": product})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "pid")
	if !ok {
		return
	}

	input, ok := h.productInput(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, h.logger, err, "error in updating product")
		return
	}

	respondSuccess(w, http.StatusOK, "product updated successfully", envelope{"products": product})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "pid")
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "error while deleting product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	respondSuccess(w, http.StatusOK, "product deleted successfully", nil)
}

func (h *ProductHandler) Latest(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.LatestProducts(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "error in getting products")
		return
	}

	respondSuccess(w, http.StatusOK, "all products", envelope{
		"countTotal": len(products),
		"products":   products,
	})
}

func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondServiceError(w, h.logger, err, "error while getting single product")
		return
	}

	respondSuccess(w, http.StatusOK, "single product fetched", envelope{"product": product})
}

func (h *ProductHandler) Photo(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "pid")
	if !ok {
		return
	}

	blob, err := h.catalog.GetProductPhoto(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "error while getting photo")
		return
	}

	respondPhoto(w, blob)
}

func (h *ProductHandler) Filter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithRequestError(w, err)
		return
	}

	var filter domain.ProductFilter
	for _, raw := range req.Checked {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category in filter")
			return
		}
		filter.CategoryIDs = append(filter.CategoryIDs, id)
	}
	if len(req.Radio) == 2 {
		filter.Price = &domain.PriceRange{Min: req.Radio[0], Max: req.Radio[1]}
	}

	products, err := h.catalog.FilterProducts(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "error while filtering products")
		return
	}

	respondSuccess(w, http.StatusOK, "", envelope{"products": products})
}

func (h *ProductHandler) Count(w http.ResponseWriter, r *http.Request) {
	total, err := h.catalog.CountProducts(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "error in product count")
		return
	}

	respondSuccess(w, http.StatusOK, "", envelope{"total": total})
}

func (h *ProductHandler) Page(w http.ResponseWriter, r *http.Request) {
	page, err := decimalInt(chi.URLParam(r, "page"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, service.ErrInvalidPage.Error())
		return
	}

	products, err := h.catalog.ProductPage(r.Context(), page)
	if err != nil {
		respondServiceError(w, h.logger, err, "error in per page ctrl")
		return
	}

	respondSuccess(w, http.StatusOK, "", envelope{"products": products})
}

func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	// chi hands back the decoded segment
	keyword := chi.URLParam(r, "keyword")

	products, err := h.catalog.SearchProducts(r.Context(), keyword)
	if err != nil {
		respondServiceError(w, h.logger, err, "error in search product API")
		return
	}

	respondSuccess(w, http.StatusOK, "", envelope{"products": products})
}

func (h *ProductHandler) Related(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "pid")
	if !ok {
		return
	}
	categoryID, ok := uuidParam(w, r, "cid")
	if !ok {
		return
	}

	products, err := h.catalog.RelatedProducts(r.Context(), productID, categoryID)
	if err != nil {
		respondServiceError(w, h.logger, err, "error while getting related products")
		return
	}

	respondSuccess(w, http.StatusOK, "", envelope{"products": products})
}

func (h *ProductHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	category, products, err := h.catalog.ProductsByCategory(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondServiceError(w, h.logger, err, "error while getting products")
		return
	}

	respondSuccess(w, http.StatusOK, "", envelope{
		"category": category,
		"products": products,
	})
}
