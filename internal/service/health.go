package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type HealthRepository interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	log        *zap.Logger
	healthRepo HealthRepository
}

func NewHealthService(log *zap.Logger, healthRepo HealthRepository) *HealthService {
	return &HealthService{
		log:        log,
		healthRepo: healthRepo,
	}
}

func (s *HealthService) IsOK(ctx context.Context) (bool, error) {
	s.log.Debug("HealthService.IsOK()")

	if err := s.healthRepo.Ping(ctx); err != nil {
		return false, fmt.Errorf("reminder store is unavailable: %w", err)
	}

	return true, nil
}
