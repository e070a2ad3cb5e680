package app

import (
	"context"
	"time"

	"github.com/Dsek-LTH/new-web/internal/clock"
	"github.com/Dsek-LTH/new-web/internal/domain"
)

type AdminRepository interface {
	CreateShoppable(ctx context.Context, s domain.Shoppable) error
	ListShoppables(ctx context.Context) ([]domain.Shoppable, error)
	// RemoveShoppable soft-deletes; purchase records under the item survive.
	RemoveShoppable(ctx context.Context, shoppableID string, at time.Time) error
}

type AdminService struct {
	repo  AdminRepository
	clock clock.Clock
}

func NewAdminService(repo AdminRepository, clk clock.Clock) *AdminService {
	return &AdminService{
		repo:  repo,
		clock: clk,
	}
}

type CreateShoppableInput struct {
	Name             string
	Price            int64
	Stock            int
	MaxAmountPerUser int
	AvailableFrom    *time.Time
	AvailableTo      *time.Time
}

func (s *AdminService) CreateShoppable(ctx context.Context, in CreateShoppableInput) (domain.Shoppable, error) {
	if in.Name == "" {
		return domain.Shoppable{}, domain.ErrNameRequired
	}
	if in.Stock <= 0 {
		return domain.Shoppable{}, domain.ErrInvalidStock
	}
	if in.Price < 0 {
		return domain.Shoppable{}, domain.ErrInvalidPrice
	}

	now := s.clock.Now()
	availableFrom := now
	if in.AvailableFrom != nil {
		availableFrom = *in.AvailableFrom
	}
	if in.AvailableTo != nil && !in.AvailableTo.After(availableFrom) {
		return domain.Shoppable{}, domain.ErrInvalidSaleWindow
	}

	maxPerUser := in.MaxAmountPerUser
	if maxPerUser == 0 {
		maxPerUser = 1
	}
	if maxPerUser < 1 {
		return domain.Shoppable{}, domain.ErrInvalidMaxPerUser
	}

	shoppable := domain.Shoppable{
		ID:               newID(),
		Name:             in.Name,
		Price:            in.Price,
		Stock:            in.Stock,
		MaxAmountPerUser: maxPerUser,
		AvailableFrom:    availableFrom,
		AvailableTo:      in.AvailableTo,
		CreatedAt:        now,
	}

	if err := s.repo.CreateShoppable(ctx, shoppable); err != nil {
		return domain.Shoppable{}, err
	}
	return shoppable, nil
}

func (s *AdminService) ListShoppables(ctx context.Context) ([]domain.Shoppable, error) {
	return s.repo.ListShoppables(ctx)
}

func (s *AdminService) RemoveShoppable(ctx context.Context, shoppableID string) error {
	if shoppableID == "" {
		return domain.ErrInvalidID
	}
	return s.repo.RemoveShoppable(ctx, shoppableID, s.clock.Now())
}
