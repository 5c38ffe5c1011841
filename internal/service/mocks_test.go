package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kennedy-ak/hitech-store/internal/cache"
	"github.com/kennedy-ak/hitech-store/internal/domain"
	"github.com/kennedy-ak/hitech-store/internal/repository"
)

// fakeCartRepo mirrors the SQL contract: one line per (owner, product),
// upsert sums quantities, set-quantity deletes at zero or below.
type fakeCartRepo struct {
	m        sync.Mutex
	products map[int64]domain.Product
	items    map[string][]domain.CartItem
	err      error
}

func newFakeCartRepo(products ...domain.Product) *fakeCartRepo {
	pm := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		pm[p.ID] = p
	}
	return &fakeCartRepo{
		products: pm,
		items:    make(map[string][]domain.CartItem),
	}
}

func (f *fakeCartRepo) GetCartItems(_ context.Context, owner string) ([]domain.CartItem, error) {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	lines := make([]domain.CartItem, len(f.items[owner]))
	copy(lines, f.items[owner])
	return lines, nil
}

func (f *fakeCartRepo) UpsertCartItem(_ context.Context, owner string, productID int64, quantity int) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.items[owner] {
		if f.items[owner][i].ProductID == productID {
			f.items[owner][i].Quantity += quantity
			return nil
		}
	}
	p := f.products[productID]
	f.items[owner] = append(f.items[owner], domain.CartItem{
		Owner:       owner,
		ProductID:   productID,
		ProductName: p.Name,
		UnitPrice:   p.PriceMinor,
		Quantity:    quantity,
		AddedAt:     time.Now(),
	})
	return nil
}

func (f *fakeCartRepo) SetItemQuantity(_ context.Context, owner string, productID int64, quantity int) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.items[owner] {
		if f.items[owner][i].ProductID == productID {
			if quantity <= 0 {
				f.items[owner] = append(f.items[owner][:i], f.items[owner][i+1:]...)
			} else {
				f.items[owner][i].Quantity = quantity
			}
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (f *fakeCartRepo) RemoveCartItem(_ context.Context, owner string, productID int64) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.items[owner] {
		if f.items[owner][i].ProductID == productID {
			f.items[owner] = append(f.items[owner][:i], f.items[owner][i+1:]...)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (f *fakeCartRepo) ClearCart(_ context.Context, owner string) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.items, owner)
	return nil
}

func (f *fakeCartRepo) MergeCarts(_ context.Context, fromOwner, toOwner string) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, line := range f.items[fromOwner] {
		merged := false
		for i := range f.items[toOwner] {
			if f.items[toOwner][i].ProductID == line.ProductID {
				f.items[toOwner][i].Quantity += line.Quantity
				merged = true
				break
			}
		}
		if !merged {
			line.Owner = toOwner
			f.items[toOwner] = append(f.items[toOwner], line)
		}
	}
	delete(f.items, fromOwner)
	return nil
}

func (f *fakeCartRepo) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	f.m.Lock()
	defer f.m.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeCartRepo) GetProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	f.m.Lock()
	defer f.m.Unlock()
	for _, p := range f.products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (f *fakeCartRepo) ListProducts(_ context.Context) ([]domain.Product, error) {
	f.m.Lock()
	defer f.m.Unlock()
	var out []domain.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

type fakeCache struct {
	m       sync.Mutex
	cart    *domain.Cart
	deletes int
}

func (f *fakeCache) Get(context.Context, string) (*domain.Cart, error) {
	f.m.Lock()
	defer f.m.Unlock()
	if f.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return f.cart, nil
}

func (f *fakeCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.cart = cart
	return nil
}

func (f *fakeCache) Delete(context.Context, string) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.cart = nil
	f.deletes++
	return nil
}

// fakeOrderRepo records orders and applies the guarded payment
// transition the way the postgres repository does.
type fakeOrderRepo struct {
	m         sync.Mutex
	carts     *fakeCartRepo
	orders    map[string]*domain.Order // keyed by payment reference
	createErr error
}

func newFakeOrderRepo(carts *fakeCartRepo) *fakeOrderRepo {
	return &fakeOrderRepo{
		carts:  carts,
		orders: make(map[string]*domain.Order),
	}
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, order *domain.Order, cartOwner string) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.orders[order.PaymentReference]; exists {
		return repository.ErrDuplicateReference
	}
	clone := *order
	f.orders[order.PaymentReference] = &clone
	if f.carts != nil {
		_ = f.carts.ClearCart(ctx, cartOwner)
	}
	return nil
}

func (f *fakeOrderRepo) GetOrderByID(_ context.Context, id uuid.UUID, userID int64) (*domain.Order, error) {
	f.m.Lock()
	defer f.m.Unlock()
	for _, o := range f.orders {
		if o.ID == id && o.UserID == userID {
			clone := *o
			return &clone, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (f *fakeOrderRepo) GetOrderByReference(_ context.Context, reference string) (*domain.Order, error) {
	f.m.Lock()
	defer f.m.Unlock()
	o, ok := f.orders[reference]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (f *fakeOrderRepo) ListOrdersByUserID(_ context.Context, userID int64) ([]*domain.Order, error) {
	f.m.Lock()
	defer f.m.Unlock()
	var out []*domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) MarkPaymentResult(_ context.Context, reference string, succeeded bool) error {
	f.m.Lock()
	defer f.m.Unlock()
	o, ok := f.orders[reference]
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

type fakeAddressRepo struct {
	m     sync.Mutex
	next  int64
	addrs []domain.ShippingAddress
}

func (f *fakeAddressRepo) ListAddresses(_ context.Context, userID int64) ([]domain.ShippingAddress, error) {
	f.m.Lock()
	defer f.m.Unlock()
	var out []domain.ShippingAddress
	for _, a := range f.addrs {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAddressRepo) GetAddress(_ context.Context, id, userID int64) (*domain.ShippingAddress, error) {
	f.m.Lock()
	defer f.m.Unlock()
	for _, a := range f.addrs {
		if a.ID == id && a.UserID == userID {
			clone := a
			return &clone, nil
		}
	}
	return nil, repository.ErrAddressNotFound
}

func (f *fakeAddressRepo) CreateAddress(_ context.Context, addr *domain.ShippingAddress) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.next++
	addr.ID = f.next
	f.addrs = append(f.addrs, *addr)
	return nil
}

func (f *fakeAddressRepo) UpdateAddress(_ context.Context, addr *domain.ShippingAddress) error {
	f.m.Lock()
	defer f.m.Unlock()
	for i := range f.addrs {
		if f.addrs[i].ID == addr.ID && f.addrs[i].UserID == addr.UserID {
			f.addrs[i] = *addr
			return nil
		}
	}
	return repository.ErrAddressNotFound
}

func (f *fakeAddressRepo) DeleteAddress(_ context.Context, id, userID int64) error {
	f.m.Lock()
	defer f.m.Unlock()
	for i := range f.addrs {
		if f.addrs[i].ID == id && f.addrs[i].UserID == userID {
			f.addrs = append(f.addrs[:i], f.addrs[i+1:]...)
			return nil
		}
	}
	return repository.ErrAddressNotFound
}

func (f *fakeAddressRepo) SetDefaultAddress(_ context.Context, id, userID int64) error {
	f.m.Lock()
	defer f.m.Unlock()
	found := false
	for i := range f.addrs {
		if f.addrs[i].UserID == userID {
			f.addrs[i].IsDefault = f.addrs[i].ID == id
			if f.addrs[i].ID == id {
				found = true
			}
		}
	}
	if !found {
		return repository.ErrAddressNotFound
	}
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	m      sync.Mutex
	events []string
}

func (f *fakePublisher) PublishOrderEvent(_ context.Context, eventType string, _ *domain.Order) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) published() []string {
	f.m.Lock()
	defer f.m.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}

// fakeGateway scripts the payment processor's answers.
type fakeGateway struct {
	redirectURL string
	initErr     error
	verified    bool
	verifyErr   error
	verifyCalls int
}

func (f *fakeGateway) Initialize(context.Context, string, int64, string, string) (string, error) {
	if f.initErr != nil {
		return "", f.initErr
	}
	return f.redirectURL, nil
}

func (f *fakeGateway) Verify(context.Context, string) (bool, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return false, f.verifyErr
	}
	return f.verified, nil
}
