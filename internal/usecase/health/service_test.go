package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/careerdex/internal/domain/collection"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type mockLister struct {
	names []string
	err   error
}

func (m *mockLister) Collections(_ context.Context) ([]string, error) { return m.names, m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockEmbeddingChecker{}, &mockLister{names: collection.Defaults()})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Service != "careerdex" {
		t.Errorf("expected service careerdex, got %q", r.Service)
	}
	for _, name := range []string{"database", "embedding", "collections"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("conn refused")}, &mockEmbeddingChecker{}, &mockLister{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
	if _, ok := r.Checks["collections"]; ok {
		t.Error("collections check should be skipped when the database is down")
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockEmbeddingChecker{err: errors.New("timeout")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["embedding"] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks["embedding"])
	}
}

func TestCheck_MissingCollections(t *testing.T) {
	svc := New(&mockDBPinger{}, nil, &mockLister{names: []string{collection.Experience}})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["collections"] != CheckMissing {
		t.Errorf("expected collections %q, got %q", CheckMissing, r.Checks["collections"])
	}
}

func TestCheck_CollectionsError(t *testing.T) {
	svc := New(&mockDBPinger{}, nil, &mockLister{err: errors.New("boom")})
	r := svc.Check(context.Background())

	if r.Checks["collections"] != CheckError {
		t.Errorf("expected collections %q, got %q", CheckError, r.Checks["collections"])
	}
}

func TestCheck_OnlyDatabase(t *testing.T) {
	svc := New(&mockDBPinger{}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the database check, got %v", r.Checks)
	}
}
