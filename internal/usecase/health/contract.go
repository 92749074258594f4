package health

import (
	"context"

	"github.com/kailas-cloud/docfusion/internal/domain"
)

// IndexProbe reports search-index readiness.
type IndexProbe interface {
	Readiness(ctx context.Context) (domain.Readiness, error)
}

// DBPinger checks structured-store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
