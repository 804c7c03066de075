package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/blobstore"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const (
	LatestProductsLimit  = 12
	ProductsPerPage      = 6
	RelatedProductsLimit = 3
)

var (
	ErrEmptyName       = errors.New("name is required")
	ErrUnknownCategory = errors.New("category does not exist")
	ErrInvalidPage     = errors.New("page must be a positive number")
)

// ProductInput carries the fields of a product create or update. A nil Photo
// keeps the current photo on update.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	CategoryID  uuid.UUID
	Quantity    int
	Shipping    bool
	Photo       *PhotoUpload
}

// CatalogService defines the interface for category and product business logic
type CatalogService interface {
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)

	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	GetProductPhoto(ctx context.Context, id uuid.UUID) (*blobstore.Blob, error)

	LatestProducts(ctx context.Context) ([]*domain.Product, error)
	CountProducts(ctx context.Context) (int, error)
	ProductPage(ctx context.Context, page int) ([]*domain.Product, error)
	FilterProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	SearchProducts(ctx context.Context, keyword string) ([]*domain.Product, error)
	RelatedProducts(ctx context.Context, productID, categoryID uuid.UUID) ([]*domain.Product, error)
	// ProductsByCategory returns a nil category and an empty list for an unknown slug
	ProductsByCategory(ctx context.Context, categorySlug string) (*domain.Category, []*domain.Product, error)
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	photos       *PhotoStore
	logger       *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	photos *PhotoStore,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		photos:       photos,
		logger:       logger,
	}
}

// Slugify derives the URL slug for a display name
func Slugify(name string) string {
	return slug.Make(name)
}

func (s *catalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	existing, err := s.categoryRepo.FindByName(ctx, name)
	if err != nil && !errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, fmt.Errorf("failed to check existing category: %w", err)
	}
	if existing != nil {
		return nil, repository.ErrCategoryAlreadyExists
	}

	category := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      Slugify(name),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	category.Name = name
	category.Slug = Slugify(name)

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) || errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return category, nil
}

// DeleteCategory removes the category only; its products keep their dangling reference
func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) GetCategoryBySlug(ctx context.Context, categorySlug string) (*domain.Category, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, categorySlug)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	category, err := s.requireCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyProductInput(product, input)
	product.Category = category

	if input.Photo != nil {
		product.Photo, err = s.photos.Save(ctx, PhotoKindProduct, product.ID, input.Photo)
		if err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if removeErr := s.photos.Remove(ctx, product.Photo); removeErr != nil {
			s.logger.Warn("Failed to remove orphaned product photo",
				zap.String("product_id", product.ID.String()),
				zap.Error(removeErr),
			)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	category, err := s.requireCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	applyProductInput(product, input)
	product.Category = category

	previous := product.Photo
	if input.Photo != nil {
		product.Photo, err = s.photos.Save(ctx, PhotoKindProduct, product.ID, input.Photo)
		if err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if input.Photo != nil {
			s.removePhoto(ctx, product.ID, product.Photo)
			product.Photo = previous
		}
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if input.Photo != nil {
		s.removePhoto(ctx, product.ID, previous)
	}

	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("failed to find product: %w", err)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.removePhoto(ctx, id, product.Photo)
	return nil
}

func (s *catalogService) removePhoto(ctx context.Context, productID uuid.UUID, ref *domain.PhotoRef) {
	if err := s.photos.Remove(ctx, ref); err != nil {
		s.logger.Warn("Failed to remove product photo",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
	}
}

func (s *catalogService) GetProductBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	product, err := s.productRepo.FindBySlug(ctx, productSlug)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *catalogService) GetProductPhoto(ctx context.Context, id uuid.UUID) (*blobstore.Blob, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return s.photos.Load(ctx, product.Photo)
}

func (s *catalogService) LatestProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.productRepo.ListLatest(ctx, LatestProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *catalogService) CountProducts(ctx context.Context) (int, error) {
	total, err := s.productRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// ProductPage returns page (1-based) of the catalog, newest first
func (s *catalogService) ProductPage(ctx context.Context, page int) ([]*domain.Product, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

	products, err := s.productRepo.ListPage(ctx, page, ProductsPerPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list product page: %w", err)
	}
	return products, nil
}

func (s *catalogService) FilterProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	products, err := s.productRepo.Filter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to filter products: %w", err)
	}
	return products, nil
}

func (s *catalogService) SearchProducts(ctx context.Context, keyword string) ([]*domain.Product, error) {
	products, err := s.productRepo.Search(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

func (s *catalogService) RelatedProducts(ctx context.Context, productID, categoryID uuid.UUID) ([]*domain.Product, error) {
	products, err := s.productRepo.Related(ctx, productID, categoryID, RelatedProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list related products: %w", err)
	}
	return products, nil
}

func (s *catalogService) ProductsByCategory(ctx context.Context, categorySlug string) (*domain.Category, []*domain.Product, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, categorySlug)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, []*domain.Product{}, nil
		}
		return nil, nil, fmt.Errorf("failed to get category: %w", err)
	}

	products, err := s.productRepo.ListByCategory(ctx, category.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list category products: %w", err)
	}
	return category, products, nil
}

func (s *catalogService) requireCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrUnknownCategory
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return category, nil
}

func applyProductInput(product *domain.Product, input ProductInput) {
	product.Name = strings.TrimSpace(input.Name)
	product.Slug = Slugify(product.Name)
	product.Description = input.Description
	product.Price = input.Price
	product.CategoryID = input.CategoryID
	product.Quantity = input.Quantity
	product.Shipping = input.Shipping
}
