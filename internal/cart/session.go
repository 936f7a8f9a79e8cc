package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultSessionTTL = 24 * time.Hour

	maxUpdateAttempts = 20
)

var ErrConcurrentUpdate = errors.New("cart changed concurrently")

// SessionStore persists carts per session id in Redis. A cart lives as long
// as its session keeps touching it; there is no durability guarantee.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		client: client,
		ttl:    ttl,
	}
}

// Load returns the session's cart. An unknown session loads an empty cart.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*Store, error) {
	key := cacheKey(sessionID)

	store, err := decodeCart(s.client.Get(ctx, key).Bytes())
	if err != nil {
		return nil, err
	}
	if store.Len() == 0 {
		return store, nil
	}

	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("redis expire failed: %w", err)
	}

	return store, nil
}

// Update loads the session's cart, applies fn and writes the result back in
// one WATCH/MULTI transaction. When another writer touches the cart first the
// whole read-modify-write is replayed after a short jittered backoff. Errors
// from fn are returned wrapped and leave the stored cart untouched.
func (s *SessionStore) Update(ctx context.Context, sessionID string, fn func(*Store) error) (*Store, error) {
	key := cacheKey(sessionID)

	var result *Store
	txf := func(tx *redis.Tx) error {
		store, err := decodeCart(tx.Get(ctx, key).Bytes())
		if err != nil {
			return err
		}
		if err := fn(store); err != nil {
			return err
		}

		items := store.Items()
		var data []byte
		if len(items) > 0 {
			if data, err = json.Marshal(items); err != nil {
				return fmt.Errorf("marshal cart failed: %w", err)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if data == nil {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		result = store
		return nil
	}

	updated, err := backoff.Retry(ctx, func() (*Store, error) {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return result, nil
	},
		backoff.WithBackOff(newUpdateBackOff()),
		backoff.WithMaxTries(maxUpdateAttempts),
	)
	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrConcurrentUpdate
	}
	return updated, err
}

func newUpdateBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	return b
}

// Remove takes the given lines out of the session's cart, leaving anything
// added after they were read in place.
func (s *SessionStore) Remove(ctx context.Context, sessionID string, items []Item) error {
	_, err := s.Update(ctx, sessionID, func(store *Store) error {
		store.Subtract(items...)
		return nil
	})
	return err
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cacheKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func decodeCart(data []byte, err error) (*Store, error) {
	if errors.Is(err, redis.Nil) {
		return NewStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return NewStore(items...), nil
}

func cacheKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
