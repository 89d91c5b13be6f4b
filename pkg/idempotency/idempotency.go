package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voltbridge/markethub/pkg/redis"
)

// Manager tracks processed result IDs per consumer using Redis SETNX with a
// TTL. Keys follow the `mh:idempotency:result:processed:<consumer>:<id>`
// pattern.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewManager builds an idempotency guard that marks results as processed for
// the given TTL.
func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{
		store: store,
		ttl:   ttl,
	}, nil
}

// CheckAndMarkProcessed returns true if the result has already been processed
// and otherwise marks it as processed with the configured TTL.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer, resultID string) (bool, error) {
	key, err := m.processedKey(consumer, resultID)
	if err != nil {
		return false, err
	}
	set, err := m.store.SetNX(ctx, key, "1", m.ttl)
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Delete releases the processed mark so a failed handling can be retried.
func (m *Manager) Delete(ctx context.Context, consumer, resultID string) error {
	key, err := m.processedKey(consumer, resultID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) processedKey(consumer, resultID string) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if resultID == "" {
		return "", errors.New("result id is required")
	}
	scope := fmt.Sprintf("result:processed:%s", consumer)
	return m.store.IdempotencyKey(scope, resultID), nil
}
