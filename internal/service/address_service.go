package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kennedy-ak/hitech-store/internal/domain"
	"github.com/kennedy-ak/hitech-store/internal/repository"
)

type AddressService struct {
	repo   repository.AddressRepository
	logger *zap.Logger
}

func NewAddressService(repo repository.AddressRepository, logger *zap.Logger) *AddressService {
	return &AddressService{repo: repo, logger: logger}
}

func (s *AddressService) List(ctx context.Context, userID int64) ([]domain.ShippingAddress, error) {
	return s.repo.ListAddresses(ctx, userID)
}

func (s *AddressService) Create(ctx context.Context, addr *domain.ShippingAddress) error {
	if err := s.repo.CreateAddress(ctx, addr); err != nil {
		return err
	}

	// A freshly created default must still be the only default.
	if addr.IsDefault {
		return s.repo.SetDefaultAddress(ctx, addr.ID, addr.UserID)
	}
	return nil
}

func (s *AddressService) Update(ctx context.Context, addr *domain.ShippingAddress) error {
	return s.repo.UpdateAddress(ctx, addr)
}

func (s *AddressService) Delete(ctx context.Context, id, userID int64) error {
	return s.repo.DeleteAddress(ctx, id, userID)
}

func (s *AddressService) SetDefault(ctx context.Context, id, userID int64) error {
	if err := s.repo.SetDefaultAddress(ctx, id, userID); err != nil {
		return err
	}
	s.logger.Info("default shipping address changed",
		zap.Int64("address_id", id),
		zap.Int64("user_id", userID))
	return nil
}
