package health

import "context"

// DBPinger checks store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CollectionLister lists the collections present in the store.
type CollectionLister interface {
	Collections(ctx context.Context) ([]string, error)
}
