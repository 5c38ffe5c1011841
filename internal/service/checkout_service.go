package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kennedy-ak/hitech-store/internal/cache"
	"github.com/kennedy-ak/hitech-store/internal/domain"
	"github.com/kennedy-ak/hitech-store/internal/events"
	"github.com/kennedy-ak/hitech-store/internal/repository"
)

// CheckoutRequest selects either a saved address (AddressID) or carries
// manually entered shipping fields.
type CheckoutRequest struct {
	AddressID       *int64
	ShippingName    string
	ShippingEmail   string
	ShippingPhone   string
	ShippingAddress string
}

type CheckoutService struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	addresses repository.AddressRepository
	cache     cache.CartCache
	publisher events.Publisher
	currency  string
	logger    *zap.Logger
}

func NewCheckoutService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	addresses repository.AddressRepository,
	cartCache cache.CartCache,
	publisher events.Publisher,
	currency string,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		carts:     carts,
		addresses: addresses,
		cache:     cartCache,
		publisher: publisher,
		currency:  currency,
		logger:    logger,
	}
}

// Checkout converts the user's cart into an order. The order, its items
// and the cart deletion commit in one transaction; unit prices are copied
// from the products at this moment and never change afterwards.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, req CheckoutRequest) (*domain.Order, error) {
	owner := domain.UserOwner(userID)

	items, err := s.carts.GetCartItems(ctx, owner.Key())
	if err != nil {
		return nil, fmt.Errorf("load cart for checkout: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	shipping, err := s.resolveShipping(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:               uuid.New(),
		UserID:           userID,
		Currency:         s.currency,
		PaymentReference: uuid.NewString(),
		PaymentStatus:    domain.PaymentStatusPending,
		Status:           domain.OrderStatusPending,
		Shipping:         *shipping,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	var total int64
	for _, line := range items {
		order.Items = append(order.Items, domain.OrderItem{
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
		total += line.Subtotal()
	}
	order.TotalMinor = total

	if err := s.orders.CreateOrder(ctx, order, owner.Key()); err != nil {
		return nil, err
	}

	// The transaction consumed the cart; a cached copy would keep
	// serving the old lines until it expired.
	s.invalidateCart(owner.Key())

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.Int64("user_id", userID),
		zap.Int64("total_minor", order.TotalMinor),
		zap.String("reference", order.PaymentReference))

	s.publish(EventContext(ctx), events.EventOrderCreated, order)

	return order, nil
}

func (s *CheckoutService) GetOrder(ctx context.Context, id uuid.UUID, userID int64) (*domain.Order, error) {
	return s.orders.GetOrderByID(ctx, id, userID)
}

func (s *CheckoutService) ListOrders(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return s.orders.ListOrdersByUserID(ctx, userID)
}

// resolveShipping snapshots the contact fields, from a saved address when
// one is selected, otherwise from the manually entered form fields.
func (s *CheckoutService) resolveShipping(ctx context.Context, userID int64, req CheckoutRequest) (*domain.ShippingInfo, error) {
	if req.AddressID != nil {
		addr, err := s.addresses.GetAddress(ctx, *req.AddressID, userID)
		if err != nil {
			return nil, err
		}
		return &domain.ShippingInfo{
			Name:    addr.Name,
			Email:   addr.Email,
			Phone:   addr.Phone,
			Address: addr.DisplayLine(),
		}, nil
	}

	if req.ShippingName == "" || req.ShippingEmail == "" || req.ShippingAddress == "" {
		return nil, ErrShippingIncomplete
	}
	return &domain.ShippingInfo{
		Name:    req.ShippingName,
		Email:   req.ShippingEmail,
		Phone:   req.ShippingPhone,
		Address: req.ShippingAddress,
	}, nil
}

func (s *CheckoutService) invalidateCart(ownerKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, ownerKey); err != nil {
		s.logger.Warn("cart cache invalidate failed", zap.Error(err))
	}
}

func (s *CheckoutService) publish(ctx context.Context, eventType string, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(ctx, eventType, order); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_type", eventType),
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
}

// EventContext detaches the publish call from the request deadline; the
// order is already committed when events go out.
func EventContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
