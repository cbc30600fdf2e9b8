package health

import "context"

// Pinger checks connectivity of the index store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks availability of the embedding provider.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
