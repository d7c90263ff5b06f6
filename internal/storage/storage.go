// Package storage provides the durable slot backends the cart store writes to.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"finitefield.org/storefront-web/internal/cart"
	"finitefield.org/storefront-web/internal/config"
)

// ErrNotConfigured indicates a backend was selected without its required settings.
var ErrNotConfigured = errors.New("storage: not configured")

// Backend is a cart slot that may hold resources needing release.
type Backend interface {
	cart.Slot
	io.Closer
}

type nopCloser struct{ cart.Slot }

func (nopCloser) Close() error { return nil }

// Open builds the slot backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return nopCloser{NewMemory()}, nil
	case "file":
		f, err := NewFile(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return nopCloser{f}, nil
	case "redis":
		return NewRedis(ctx, cfg.Redis)
	case "sql":
		return OpenSQL(cfg.SQL)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrNotConfigured, cfg.Backend)
	}
}
