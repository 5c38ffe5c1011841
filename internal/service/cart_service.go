package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kennedy-ak/hitech-store/internal/cache"
	"github.com/kennedy-ak/hitech-store/internal/domain"
	"github.com/kennedy-ak/hitech-store/internal/repository"
)

type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	currency string
	logger   *zap.Logger
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository, cartCache cache.CartCache, currency string, logger *zap.Logger) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cartCache,
		currency: currency,
		logger:   logger,
	}
}

// GetCart returns the owner's cart with the running total. Reads go
// through the cache; a miss falls back to the repository and repopulates
// the cache off the request path.
func (s *CartService) GetCart(ctx context.Context, owner domain.Owner) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(owner.Key(), func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, owner.Key())
		if err == nil {
			return cart, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", zap.Error(err))
		}

		items, errGet := s.repo.GetCartItems(ctx, owner.Key())
		if errGet != nil {
			return nil, errGet
		}

		cart = domain.NewCart(items, s.currency)

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(setCtx, owner.Key(), cart); errSet != nil {
				s.logger.Warn("cart cache set failed", zap.Error(errSet))
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem upserts a line for (owner, product); adding a product already
// in the cart sums the quantities.
func (s *CartService) AddItem(ctx context.Context, owner domain.Owner, productID int64, quantity int) error {
	if quantity < 1 {
		return ErrQuantityInvalid
	}

	// The product must exist before a line can reference it.
	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return err
	}

	if err := s.repo.UpsertCartItem(ctx, owner.Key(), productID, quantity); err != nil {
		s.logger.Error("add cart item failed", zap.String("owner", owner.Key()), zap.Error(err))
		return err
	}

	s.invalidate(owner.Key())
	return nil
}

// UpdateQuantity sets the line's quantity; zero or negative removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, owner domain.Owner, productID int64, quantity int) error {
	if err := s.repo.SetItemQuantity(ctx, owner.Key(), productID, quantity); err != nil {
		s.logger.Error("update cart quantity failed", zap.String("owner", owner.Key()), zap.Error(err))
		return err
	}

	s.invalidate(owner.Key())
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, owner domain.Owner, productID int64) error {
	if err := s.repo.RemoveCartItem(ctx, owner.Key(), productID); err != nil {
		s.logger.Error("remove cart item failed", zap.String("owner", owner.Key()), zap.Error(err))
		return err
	}

	s.invalidate(owner.Key())
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, owner domain.Owner) error {
	if err := s.repo.ClearCart(ctx, owner.Key()); err != nil {
		s.logger.Error("clear cart failed", zap.String("owner", owner.Key()), zap.Error(err))
		return err
	}

	s.invalidate(owner.Key())
	return nil
}

// MergeIntoUser folds an anonymous cart into the user's cart, summing
// quantities on collision. Called on login so the visitor's cart survives
// authentication.
func (s *CartService) MergeIntoUser(ctx context.Context, anonymous domain.Owner, userID int64) error {
	if anonymous.CartToken == "" {
		return nil
	}

	user := domain.UserOwner(userID)
	if err := s.repo.MergeCarts(ctx, anonymous.Key(), user.Key()); err != nil {
		s.logger.Error("cart merge failed",
			zap.String("from", anonymous.Key()),
			zap.Int64("user_id", userID),
			zap.Error(err))
		return err
	}

	s.invalidate(anonymous.Key())
	s.invalidate(user.Key())
	return nil
}

func (s *CartService) invalidate(ownerKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, ownerKey); err != nil {
		s.logger.Warn("cart cache invalidate failed", zap.Error(err))
	}
}
