package cities

import (
	"context"
	"fmt"
	"strings"

	"github.com/happyflights/flightbooking/internal/domain"
	"github.com/happyflights/flightbooking/internal/repository"
	"github.com/happyflights/flightbooking/pkg/apperrors"
	"github.com/happyflights/flightbooking/pkg/logger"
	"go.uber.org/zap"
)

type CityUseCase interface {
	List(ctx context.Context) ([]domain.City, error)
	Create(ctx context.Context, in CityInput) (*domain.City, error)
}

type CityInput struct {
	CityID   string
	CityName string
}

type CityService struct {
	tx   repository.Transactor
	repo repository.CityRepository
}

func NewCityService(tx repository.Transactor, repo repository.CityRepository) *CityService {
	return &CityService{tx: tx, repo: repo}
}

// List returns the registry ordered by city name.
func (s *CityService) List(ctx context.Context) ([]domain.City, error) {
	return s.repo.List(ctx)
}

// Create registers a city. Both the id and the name must be unused.
func (s *CityService) Create(ctx context.Context, in CityInput) (*domain.City, error) {
	city := domain.City{
		CityID:   strings.TrimSpace(in.CityID),
		CityName: strings.TrimSpace(in.CityName),
	}
	if city.CityID == "" || city.CityName == "" {
		return nil, fmt.Errorf("%w: city_id and city_name are required", apperrors.ErrInvalidInput)
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.Exists(ctx, city.CityID, city.CityName)
		if err != nil {
			return err
		}
		if exists {
			return &apperrors.ConflictError{Reason: apperrors.ReasonCityExists}
		}
		return s.repo.Create(ctx, &city)
	})
	if err != nil {
		return nil, err
	}

	logger.WithComponent("cities").Info("city created",
		zap.String("city_id", city.CityID), zap.String("city_name", city.CityName))
	return &city, nil
}
