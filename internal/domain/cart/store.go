// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
)

// Store persists carts in Redis keyed by session id. Carts expire after the
// configured TTL; a missing key is an empty cart, not an error. Concurrent
// saves for the same session are last-write-wins.
type Store struct {
	redisClient *redis.Client
	config      *config.Config
}

// NewStore creates a new cart store
func NewStore(redisClient *redis.Client, cfg *config.Config) *Store {
	return &Store{
		redisClient: redisClient,
		config:      cfg,
	}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

// Load retrieves the cart for a session, returning a fresh empty cart when
// none is stored.
func (s *Store) Load(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id required")
	}

	data, err := s.redisClient.Get(ctx, cartKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return New(sessionID), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}

	return &c, nil
}

// Save persists the cart with the configured TTL. Callers save after every
// mutation.
func (s *Store) Save(ctx context.Context, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	return s.redisClient.Set(ctx, cartKey(c.SessionID), data, s.config.Session.CartTTL).Err()
}

// Delete removes the stored cart for a session
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.redisClient.Del(ctx, cartKey(sessionID)).Err()
}
