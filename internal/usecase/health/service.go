// Package health reports readiness of the engine's dependencies.
package health

import (
	"context"
	"fmt"
)

// Service checks readiness of the index store and the embedding provider.
type Service struct {
	store    Pinger
	provider ProviderChecker
}

// New creates a health service. provider may be nil when no provider check
// is wanted.
func New(store Pinger, provider ProviderChecker) *Service {
	return &Service{store: store, provider: provider}
}

// Ready returns nil when every dependency responds.
func (s *Service) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("index store not ready: %w", err)
	}
	if s.provider != nil {
		if err := s.provider.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding provider not ready: %w", err)
		}
	}
	return nil
}
