package health

import (
	"context"
	"slices"

	"github.com/kailas-cloud/careerdex/internal/domain/collection"
)

// ServiceName is reported by every health response.
const ServiceName = "careerdex"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates the fixed collections are not all present.
	CheckMissing CheckResult = "missing"
)

// Report aggregates health check results.
type Report struct {
	Status  Status
	Service string
	Checks  map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db          DBPinger
	embedding   EmbeddingChecker
	collections CollectionLister
}

// New creates a Service. embedding and collections can be nil.
func New(db DBPinger, embedding EmbeddingChecker, collections CollectionLister) *Service {
	return &Service{db: db, embedding: embedding, collections: collections}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["database"] = result(s.db.Ping(ctx))

	if s.embedding != nil {
		checks["embedding"] = result(s.embedding.HealthCheck(ctx))
	}

	if s.collections != nil && checks["database"] == CheckOK {
		checks["collections"] = s.checkCollections(ctx)
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Service: ServiceName, Checks: checks}
}

func (s *Service) checkCollections(ctx context.Context) CheckResult {
	names, err := s.collections.Collections(ctx)
	if err != nil {
		return CheckError
	}
	for _, want := range collection.Defaults() {
		if !slices.Contains(names, want) {
			return CheckMissing
		}
	}
	return CheckOK
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
