package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/blobstore"
	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

// pngHeader is enough for content sniffing to report image/png
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

var gifHeader = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff")

// Mock repositories for testing
type mockUserRepository struct {
	users     map[string]*domain.User
	updateErr error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, err := m.FindByID(ctx, user.ID); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()
	m.users[user.Email] = user
	return nil
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, c := range m.categories {
		if c.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	list := make([]*domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

func (m *mockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	for _, c := range m.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	for _, c := range m.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

type mockProductRepository struct {
	products  map[uuid.UUID]*domain.Product
	updateErr error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) newestFirst(keep func(*domain.Product) bool) []*domain.Product {
	list := make([]*domain.Product, 0)
	for _, p := range m.products {
		if keep(p) {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

func all(*domain.Product) bool { return true }

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	for _, p := range m.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) ListLatest(ctx context.Context, limit int) ([]*domain.Product, error) {
	list := m.newestFirst(all)
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *mockProductRepository) ListPage(ctx context.Context, page, perPage int) ([]*domain.Product, error) {
	list := m.newestFirst(all)
	start := (page - 1) * perPage
	if start >= len(list) {
		return []*domain.Product{}, nil
	}
	end := start + perPage
	if end > len(list) {
		end = len(list)
	}
	return list[start:end], nil
}

func (m *mockProductRepository) Count(ctx context.Context) (int, error) {
	return len(m.products), nil
}

func (m *mockProductRepository) Filter(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	return m.newestFirst(func(p *domain.Product) bool {
		if len(filter.CategoryIDs) > 0 {
			found := false
			for _, id := range filter.CategoryIDs {
				if p.CategoryID == id {
					found = true
				}
			}
			if !found {
				return false
			}
		}
		if filter.Price != nil && (p.Price < filter.Price.Min || p.Price > filter.Price.Max) {
			return false
		}
		return true
	}), nil
}

func (m *mockProductRepository) Search(ctx context.Context, keyword string) ([]*domain.Product, error) {
	needle := strings.ToLower(keyword)
	return m.newestFirst(func(p *domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle)
	}), nil
}

func (m *mockProductRepository) Related(ctx context.Context, productID, categoryID uuid.UUID, limit int) ([]*domain.Product, error) {
	list := m.newestFirst(func(p *domain.Product) bool {
		return p.CategoryID == categoryID && p.ID != productID
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *mockProductRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Product, error) {
	return m.newestFirst(func(p *domain.Product) bool { return p.CategoryID == categoryID }), nil
}

type mockOrderRepository struct {
	orders    map[uuid.UUID]*domain.Order
	createErr error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error) {
	list := make([]*domain.Order, 0)
	for _, o := range m.orders {
		if o.BuyerID == buyerID {
			list = append(list, o)
		}
	}
	return list, nil
}

func (m *mockOrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	list := make([]*domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		list = append(list, o)
	}
	return list, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o.Status = status
	return o, nil
}

type memoryBlobStore struct {
	mu    sync.Mutex
	blobs map[string]*blobstore.Blob
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{blobs: make(map[string]*blobstore.Blob)}
}

func (m *memoryBlobStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = &blobstore.Blob{ContentType: contentType, Data: append([]byte(nil), data...), StoredAt: time.Now()}
	return nil
}

func (m *memoryBlobStore) Get(ctx context.Context, key string) (*blobstore.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, blobstore.ErrBlobNotFound
	}
	return b, nil
}

func (m *memoryBlobStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

// fakeGateway records sales and fails them on demand
type fakeGateway struct {
	sales   []decimal.Decimal
	failure error
}

func (g *fakeGateway) ClientToken(ctx context.Context) (string, error) {
	return "client-token", nil
}

func (g *fakeGateway) Sale(ctx context.Context, amount decimal.Decimal, nonce string) (*domain.PaymentReceipt, error) {
	g.sales = append(g.sales, amount)
	if g.failure != nil {
		return nil, g.failure
	}
	return &domain.PaymentReceipt{
		TransactionID: "txn-" + nonce,
		Status:        "submitted_for_settlement",
		Amount:        amount.StringFixed(2),
		Success:       true,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

var _ payment.Gateway = (*fakeGateway)(nil)

func newTestCatalog() (CatalogService, *mockCategoryRepository, *mockProductRepository, *memoryBlobStore) {
	categories := newMockCategoryRepository()
	products := newMockProductRepository()
	blobs := newMemoryBlobStore()
	svc := NewCatalogService(categories, products, NewPhotoStore(blobs, 0), zap.NewNop())
	return svc, categories, products, blobs
}
