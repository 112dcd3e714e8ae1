package redisslot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psvit/storefront/internal/domain"
)

func newTestSlot(t *testing.T) (*Slot, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, "cart-storage", 0), mr
}

func TestRedisSlotRoundTrip(t *testing.T) {
	slot, _ := newTestSlot(t)
	ctx := context.Background()

	snap := domain.Snapshot{
		{Product: domain.Product{ID: "p1", Name: "HP Scanner", Price: 15500, Category: domain.CategoryScanners}, Quantity: 3},
	}

	require.NoError(t, slot.Save(ctx, snap))

	loaded, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestRedisSlotLoadMissingKey(t *testing.T) {
	slot, _ := newTestSlot(t)

	loaded, err := slot.Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisSlotLoadCorruptValue(t *testing.T) {
	slot, mr := newTestSlot(t)
	require.NoError(t, mr.Set("cart-storage", "{broken"))

	_, err := slot.Load(context.Background())
	assert.Error(t, err)
}

func TestRedisSlotClear(t *testing.T) {
	slot, mr := newTestSlot(t)
	ctx := context.Background()

	require.NoError(t, slot.Save(ctx, domain.Snapshot{{Product: domain.Product{ID: "p1"}, Quantity: 1}}))
	require.NoError(t, slot.Clear(ctx))
	assert.False(t, mr.Exists("cart-storage"))
}

func TestRedisSlotTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	slot := New(client, "cart-storage", time.Hour)
	require.NoError(t, slot.Save(context.Background(), domain.Snapshot{}))
	assert.Equal(t, time.Hour, mr.TTL("cart-storage"))
}
