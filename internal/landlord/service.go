package landlord

import (
	"log/slog"

	errors "github.com/rentably/rent-collection/internal"
	datamodel "github.com/rentably/rent-collection/internal/core/datamodel/landlord"
)

type ServiceAPI interface {
	GetProfile(landlordID int64) (*Profile, error)
}

type RepositoryAPI interface {
	GetByID(landlordID int64) (*datamodel.Landlord, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetProfile(landlordID int64) (*Profile, error) {
	l, err := s.repo.GetByID(landlordID)
	if err != nil {
		s.logger.Error("failed to load landlord", "error", err, "landlord_id", landlordID)
		return nil, errors.NewNotFoundError("landlord not found", errors.ErrCodeUnauthorizedAccess)
	}

	return &Profile{
		ID:               l.ID,
		Email:            l.Email,
		Name:             l.Name,
		SubscriptionTier: l.SubscriptionTier,
		PayoutReady:      l.PayoutReady(),
		CreatedAt:        l.CreatedAt,
		PayoutReadyAt:    l.PayoutReadyAt,
	}, nil
}
