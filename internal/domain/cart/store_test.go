// internal/domain/cart/store_test.go
package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{}
	cfg.Session.CartTTL = time.Hour

	return NewStore(client, cfg), mr
}

func TestLoadMissingReturnsEmptyCart(t *testing.T) {
	store, _ := newTestStore(t)

	c, err := store.Load(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, "session-1", c.SessionID)
	assert.True(t, c.IsEmpty())
}

func TestLoadRequiresSessionID(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Load(context.Background(), "")
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	c := New("session-1")
	c.Add(1, "Headphones", 15999, 2, false)
	c.Add(2, "Keyboard", 8999, 1, false)

	require.NoError(t, store.Save(ctx, c))

	loaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, c.SessionID, loaded.SessionID)
	assert.Equal(t, c.Total(), loaded.Total())

	items := loaded.Items()
	require.Len(t, items, 2)
	assert.Equal(t, uint(1), items[0].ProductID)
	assert.Equal(t, int64(15999), items[0].UnitPrice)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestSaveSetsTTL(t *testing.T) {
	store, mr := newTestStore(t)

	c := New("session-1")
	c.Add(1, "Headphones", 15999, 1, false)
	require.NoError(t, store.Save(context.Background(), c))

	ttl := mr.TTL("cart:session:session-1")
	assert.Equal(t, time.Hour, ttl)
}

func TestCartExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	c := New("session-1")
	c.Add(1, "Headphones", 15999, 1, false)
	require.NoError(t, store.Save(ctx, c))

	mr.FastForward(2 * time.Hour)

	loaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	c := New("session-1")
	c.Add(1, "Headphones", 15999, 1, false)
	require.NoError(t, store.Save(ctx, c))

	require.NoError(t, store.Delete(ctx, "session-1"))

	loaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}
