package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kennedy-ak/hitech-store/internal/domain"
	"github.com/kennedy-ak/hitech-store/internal/events"
	"github.com/kennedy-ak/hitech-store/internal/repository"
)

// Gateway is the slice of the payment processor this service needs.
type Gateway interface {
	Initialize(ctx context.Context, email string, amountMinor int64, reference, callbackURL string) (string, error)
	Verify(ctx context.Context, reference string) (bool, error)
}

type PaymentService struct {
	orders    repository.OrderRepository
	gateway   Gateway
	publisher events.Publisher
	logger    *zap.Logger
}

func NewPaymentService(orders repository.OrderRepository, gateway Gateway, publisher events.Publisher, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		orders:    orders,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
	}
}

// InitiatePayment registers the order's transaction with the gateway and
// returns the URL the customer must be redirected to.
func (s *PaymentService) InitiatePayment(ctx context.Context, userID int64, orderID uuid.UUID, callbackURL string) (string, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID, userID)
	if err != nil {
		return "", err
	}

	redirectURL, err := s.gateway.Initialize(ctx, order.Shipping.Email, order.TotalMinor, order.PaymentReference, callbackURL)
	if err != nil {
		s.logger.Error("payment initialization failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return "", err
	}

	s.logger.Info("payment initiated",
		zap.String("order_id", order.ID.String()),
		zap.String("reference", order.PaymentReference))

	return redirectURL, nil
}

// HandleCallback processes the gateway's browser round-trip for a payment
// reference. A verified success moves the order to PROCESSING with
// payment COMPLETED; a reported failure marks the payment FAILED and
// leaves the order status alone. The underlying update is guarded so a
// second callback for the same reference cannot transition twice.
func (s *PaymentService) HandleCallback(ctx context.Context, reference string) (*domain.Order, error) {
	if _, err := s.orders.GetOrderByReference(ctx, reference); err != nil {
		return nil, err
	}

	verified, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		// Verification errors leave the order in its prior state.
		return nil, fmt.Errorf("verify payment: %w", err)
	}

	markErr := s.orders.MarkPaymentResult(ctx, reference, verified)
	if markErr != nil && !errors.Is(markErr, repository.ErrAlreadyProcessed) {
		return nil, markErr
	}
	if errors.Is(markErr, repository.ErrAlreadyProcessed) {
		s.logger.Info("duplicate payment callback ignored", zap.String("reference", reference))
	}

	order, err := s.orders.GetOrderByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	if markErr == nil {
		eventType := events.EventPaymentFailed
		if verified {
			eventType = events.EventPaymentCompleted
		}
		s.publish(EventContext(ctx), eventType, order)

		s.logger.Info("payment callback processed",
			zap.String("reference", reference),
			zap.Bool("verified", verified),
			zap.String("payment_status", order.PaymentStatus.String()))
	}

	return order, nil
}

func (s *PaymentService) publish(ctx context.Context, eventType string, order *domain.Order) {
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
