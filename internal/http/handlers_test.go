package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kennedy-ak/hitech-store/internal/cache"
	"github.com/kennedy-ak/hitech-store/internal/domain"
	"github.com/kennedy-ak/hitech-store/internal/repository"
	"github.com/kennedy-ak/hitech-store/internal/service"
)

// --- shared fakes ---

type cartRepoStub struct {
	m        sync.Mutex
	products map[int64]domain.Product
	items    map[string][]domain.CartItem
}

func newCartRepoStub() *cartRepoStub {
	return &cartRepoStub{
		products: map[int64]domain.Product{
			1: {ID: 1, Name: "Laptop", Slug: "laptop", PriceMinor: 1000},
			2: {ID: 2, Name: "Mouse", Slug: "mouse", PriceMinor: 500},
		},
		items: make(map[string][]domain.CartItem),
	}
}

func (s *cartRepoStub) GetCartItems(_ context.Context, owner string) ([]domain.CartItem, error) {
	s.m.Lock()
	defer s.m.Unlock()
	lines := make([]domain.CartItem, len(s.items[owner]))
	copy(lines, s.items[owner])
	return lines, nil
}

func (s *cartRepoStub) UpsertCartItem(_ context.Context, owner string, productID int64, quantity int) error {
	s.m.Lock()
	defer s.m.Unlock()
	for i := range s.items[owner] {
		if s.items[owner][i].ProductID == productID {
			s.items[owner][i].Quantity += quantity
			return nil
		}
	}
	p := s.products[productID]
	s.items[owner] = append(s.items[owner], domain.CartItem{
		Owner:       owner,
		ProductID:   productID,
		ProductName: p.Name,
		UnitPrice:   p.PriceMinor,
		Quantity:    quantity,
		AddedAt:     time.Now(),
	})
	return nil
}

func (s *cartRepoStub) SetItemQuantity(_ context.Context, owner string, productID int64, quantity int) error {
	s.m.Lock()
	defer s.m.Unlock()
	for i := range s.items[owner] {
		if s.items[owner][i].ProductID == productID {
			if quantity <= 0 {
				s.items[owner] = append(s.items[owner][:i], s.items[owner][i+1:]...)
			} else {
				s.items[owner][i].Quantity = quantity
			}
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (s *cartRepoStub) RemoveCartItem(_ context.Context, owner string, productID int64) error {
	s.m.Lock()
	defer s.m.Unlock()
	for i := range s.items[owner] {
		if s.items[owner][i].ProductID == productID {
			s.items[owner] = append(s.items[owner][:i], s.items[owner][i+1:]...)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (s *cartRepoStub) ClearCart(_ context.Context, owner string) error {
	s.m.Lock()
	defer s.m.Unlock()
	delete(s.items, owner)
	return nil
}

func (s *cartRepoStub) MergeCarts(_ context.Context, fromOwner, toOwner string) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.items[toOwner] = append(s.items[toOwner], s.items[fromOwner]...)
	delete(s.items, fromOwner)
	return nil
}

func (s *cartRepoStub) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	s.m.Lock()
	defer s.m.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (s *cartRepoStub) GetProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	s.m.Lock()
	defer s.m.Unlock()
	for _, p := range s.products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (s *cartRepoStub) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.m.Lock()
	defer s.m.Unlock()
	var out []domain.Product
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

type missCache struct{}

func (missCache) Get(context.Context, string) (*domain.Cart, error) {
	return nil, cache.ErrCacheMiss
}
func (missCache) Set(context.Context, string, *domain.Cart) error { return nil }
func (missCache) Delete(context.Context, string) error            { return nil }

type orderRepoStub struct {
	m      sync.Mutex
	orders map[string]*domain.Order
}

func newOrderRepoStub() *orderRepoStub {
	return &orderRepoStub{orders: make(map[string]*domain.Order)}
}

func (s *orderRepoStub) CreateOrder(_ context.Context, order *domain.Order, _ string) error {
	s.m.Lock()
	defer s.m.Unlock()
	clone := *order
	s.orders[order.PaymentReference] = &clone
	return nil
}

func (s *orderRepoStub) GetOrderByID(_ context.Context, id uuid.UUID, userID int64) (*domain.Order, error) {
	s.m.Lock()
	defer s.m.Unlock()
	for _, o := range s.orders {
		if o.ID == id && o.UserID == userID {
			clone := *o
			return &clone, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (s *orderRepoStub) GetOrderByReference(_ context.Context, reference string) (*domain.Order, error) {
	s.m.Lock()
	defer s.m.Unlock()
	o, ok := s.orders[reference]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (s *orderRepoStub) ListOrdersByUserID(_ context.Context, userID int64) ([]*domain.Order, error) {
	s.m.Lock()
	defer s.m.Unlock()
	var out []*domain.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *orderRepoStub) MarkPaymentResult(_ context.Context, reference string, succeeded bool) error {
	s.m.Lock()
	defer s.m.Unlock()
	o, ok := s.orders[reference]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.PaymentStatus != domain.PaymentStatusPending {
		return repository.ErrAlreadyProcessed
	}
	if succeeded {
		o.PaymentStatus = domain.PaymentStatusCompleted
		o.Status = domain.OrderStatusProcessing
	} else {
		o.PaymentStatus = domain.PaymentStatusFailed
	}
	return nil
}

type gatewayStub struct {
	redirectURL string
	verified    bool
	err         error
}

func (g gatewayStub) Initialize(context.Context, string, int64, string, string) (string, error) {
	return g.redirectURL, g.err
}

func (g gatewayStub) Verify(context.Context, string) (bool, error) {
	return g.verified, g.err
}

// --- helpers ---

func newCartTestHandler() (*CartHandler, *cartRepoStub) {
	repo := newCartRepoStub()
	svc := service.NewCartService(repo, repo, missCache{}, "GHS", zap.NewNop())
	return NewCartHandler(svc, 5*time.Second), repo
}

func withOwner(r *http.Request, owner domain.Owner) *http.Request {
	ctx := context.WithValue(r.Context(), "owner", owner)
	return r.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
