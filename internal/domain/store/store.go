// Package store declares the contract every storage backend implements.
package store

import (
	"context"

	"github.com/kailas-cloud/careerdex/internal/domain/record"
)

// DocumentStore holds named collections of embedded records.
type DocumentStore interface {
	CreateCollection(ctx context.Context, name string) error
	Add(ctx context.Context, collection string, records []record.Record) error
	GetAll(ctx context.Context, collection string, include record.Include) ([]record.Record, error)
	Query(ctx context.Context, collection string, q record.Query) ([]record.Match, error)
	Count(ctx context.Context, collection string) (int, error)
	Collections(ctx context.Context) ([]string, error)
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
