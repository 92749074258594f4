package health

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docfusion/internal/domain"
	"github.com/kailas-cloud/docfusion/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates that search still works with fewer signals.
	Degraded Status = "degraded"
	// Unhealthy indicates that the search index is unusable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckDisabled indicates a component that is not configured.
	CheckDisabled CheckResult = "disabled"
)

// Component names in Report.Checks.
const (
	ComponentIndex      = "index"
	ComponentStructured = "structured"
	ComponentEmbedding  = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Readiness domain.Readiness
	Checks    map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	index      IndexProbe
	structured DBPinger
	embedding  EmbeddingChecker
}

// New creates a Service. structured and embedding can be nil.
func New(index IndexProbe, structured DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{index: index, structured: structured, embedding: embedding}
}

// Check runs health checks against all components. A red index makes the
// service unhealthy; any other failure only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	log := logger.FromContext(ctx)
	checks := make(map[string]CheckResult, 3)

	level, err := s.index.Readiness(ctx)
	if err != nil {
		log.Warn("Index health check failed", zap.Error(err))
		level = domain.ReadinessRed
	}
	checks[ComponentIndex] = CheckOK
	if level == domain.ReadinessRed {
		checks[ComponentIndex] = CheckError
	}

	checks[ComponentStructured] = CheckDisabled
	if s.structured != nil {
		checks[ComponentStructured] = result(ctx, ComponentStructured, s.structured.Ping(ctx))
	}
	checks[ComponentEmbedding] = CheckDisabled
	if s.embedding != nil {
		checks[ComponentEmbedding] = result(ctx, ComponentEmbedding, s.embedding.HealthCheck(ctx))
	}

	status := Healthy
	switch {
	case checks[ComponentIndex] == CheckError:
		status = Unhealthy
	case checks[ComponentStructured] == CheckError, checks[ComponentEmbedding] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Readiness: level, Checks: checks}
}

func result(ctx context.Context, component string, err error) CheckResult {
	if err != nil {
		logger.FromContext(ctx).Warn("Health check failed", zap.String("component", component), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
