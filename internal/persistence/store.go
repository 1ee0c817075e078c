// Package persistence selects and opens the store named by a connection string.
package persistence

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/persistence/memory"
	"example.com/exercisetracker/internal/persistence/mongo"
	"example.com/exercisetracker/internal/persistence/postgres"
)

// Backend names a store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendMongo    Backend = "mongo"
	BackendPostgres Backend = "postgres"
)

// Options configures Open.
type Options struct {
	URL           string
	MongoDatabase string
}

// BackendFor maps a connection string to a backend by its scheme. An empty string selects memory.
func BackendFor(rawURL string) (Backend, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return BackendMemory, nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "mongodb", "mongodb+srv":
		return BackendMongo, nil
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "memory":
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("unsupported database scheme %q", parsed.Scheme)
	}
}

// Open connects to the selected backend and prepares its indexes or tables.
func Open(ctx context.Context, opts Options) (domain.Repository, Backend, error) {
	backend, err := BackendFor(opts.URL)
	if err != nil {
		return nil, "", err
	}

	switch backend {
	case BackendMongo:
		repo, err := mongo.Connect(ctx, opts.URL, opts.MongoDatabase)
		if err != nil {
			return nil, backend, err
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = repo.Close(ctx)
			return nil, backend, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		return repo, backend, nil
	case BackendPostgres:
		repo, err := postgres.Connect(ctx, opts.URL)
		if err != nil {
			return nil, backend, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = repo.Close(ctx)
			return nil, backend, fmt.Errorf("ensure postgres schema: %w", err)
		}
		return repo, backend, nil
	default:
		return memory.NewRepository(), BackendMemory, nil
	}
}
