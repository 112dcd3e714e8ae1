package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psvit/storefront/internal/domain"
	apperrors "github.com/psvit/storefront/pkg/errors"
)

// memorySlot is an in-memory SnapshotSlot used to observe persistence.
type memorySlot struct {
	mu      sync.Mutex
	data    domain.Snapshot
	saved   bool
	saves   int
	loadErr error
	saveErr error
}

func (m *memorySlot) Load(context.Context) (domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if !m.saved {
		return nil, nil
	}
	return m.data.Clone(), nil
}

func (m *memorySlot) Save(_ context.Context, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = snap.Clone()
	m.saved = true
	return nil
}

func (m *memorySlot) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.saved = false
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*CartStore, *memorySlot) {
	t.Helper()
	slot := &memorySlot{}
	return NewCartStore(context.Background(), slot, nil, testLogger()), slot
}

func product(id string, price int64) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    price,
		Category: domain.CategoryComputers,
	}
}

func TestAddItemNewLine(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, product("p1", 1999)))

	snap := store.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 1, snap[0].Quantity)
	assert.Equal(t, 1, store.TotalItems())
	assert.Equal(t, int64(1999), store.TotalPrice())
}

func TestAddItemMergeKeepsFrozenFields(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := product("p1", 1999)
	require.NoError(t, store.AddItem(ctx, first))

	// the catalog price changed between adds
	repriced := product("p1", 2999)
	repriced.Name = "Renamed Product"
	require.NoError(t, store.AddItem(ctx, repriced))

	snap := store.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 2, snap[0].Quantity)
	assert.Equal(t, int64(1999), snap[0].Price, "merge must not refresh the frozen price")
	assert.Equal(t, "Product p1", snap[0].Name, "merge must not refresh the frozen name")
	assert.Equal(t, int64(3998), store.TotalPrice())
}

func TestAddItemValidation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	err := store.AddItem(ctx, domain.Product{ID: "", Price: 100})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	err = store.AddItem(ctx, domain.Product{ID: "p1", Price: -1})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	assert.Empty(t, store.Snapshot())
}

func TestAddItemPreservesInsertionOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, product("p1", 100)))
	require.NoError(t, store.AddItem(ctx, product("p2", 200)))
	require.NoError(t, store.AddItem(ctx, product("p1", 100)))
	require.NoError(t, store.AddItem(ctx, product("p3", 300)))

	snap := store.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "p1", snap[0].ID)
	assert.Equal(t, "p2", snap[1].ID)
	assert.Equal(t, "p3", snap[2].ID)
}

func TestTotalsStayExactUnderRepeatedAdds(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// many distinct ten-cent products; floating point would drift here
	const lines = 500
	for i := 0; i < lines; i++ {
		require.NoError(t, store.AddItem(ctx, product(fmt.Sprintf("p%d", i), 10)))
	}

	assert.Equal(t, lines, store.TotalItems())
	assert.Equal(t, int64(lines*10), store.TotalPrice())
}

func TestAddItemCartLineCap(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < MaxCartLines; i++ {
		require.NoError(t, store.AddItem(ctx, product(fmt.Sprintf("p%d", i), 10)))
	}

	err := store.AddItem(ctx, product("overflow", 10))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, MaxCartLines, store.TotalItems())
}

func TestRemoveItem(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, product("p1", 100)))
	require.NoError(t, store.AddItem(ctx, product("p2", 200)))

	require.NoError(t, store.RemoveItem(ctx, "p1"))

	snap := store.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "p2", snap[0].ID)
}

func TestRemoveItemMissingIsNoOp(t *testing.T) {
	store, slot := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, product("p1", 100)))
	savesBefore := slot.saves

	assert.NoError(t, store.RemoveItem(ctx, "missing"))
	assert.Equal(t, 1, store.TotalItems())
	assert.Equal(t, savesBefore, slot.saves, "a no-op remove must not write the slot")
}

func TestUpdateQuantity(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, product("p1", 100)))
	require.NoError(t, store.UpdateQuantity(ctx, "p1", 5))

	assert.Equal(t, 5, store.TotalItems())
	assert.Equal(t, int64(500), store.TotalPrice())
}

func TestUpdateQuantityBelowOneIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, product("p1", 100)))

	assert.NoError(t, store.UpdateQuantity(ctx, "p1", 0))
	assert.NoError(t, store.UpdateQuantity(ctx, "p1", -3))
	assert.Equal(t, 1, store.TotalItems(), "quantities below 1 are ignored, not treated as removal")
}

func TestUpdateQuantityMissingLineIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)

	assert.NoError(t, store.UpdateQuantity(context.Background(), "missing", 5))
	assert.Empty(t, store.Snapshot())
}

func TestUpdateQuantityOverCap(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, product("p1", 100)))
	err := store.UpdateQuantity(ctx, "p1", MaxLineQuantity+1)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, 1, store.TotalItems())
}

func TestClear(t *testing.T) {
	store, slot := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, product("p1", 100)))
	require.NoError(t, store.AddItem(ctx, product("p2", 200)))
	require.NoError(t, store.Clear(ctx))

	assert.Empty(t, store.Snapshot())
	assert.Equal(t, 0, store.TotalItems())
	assert.Equal(t, int64(0), store.TotalPrice())

	loaded, err := slot.Load(ctx)
	assert.NoError(t, err)
	assert.Nil(t, loaded, "clear must remove the persisted slot")
}

func TestHydrationFromSlot(t *testing.T) {
	ctx := context.Background()
	slot := &memorySlot{}

	first := NewCartStore(ctx, slot, nil, testLogger())
	require.NoError(t, first.AddItem(ctx, product("p1", 1999)))
	require.NoError(t, first.AddItem(ctx, product("p1", 1999)))

	second := NewCartStore(ctx, slot, nil, testLogger())
	assert.Equal(t, 2, second.TotalItems())
	assert.Equal(t, int64(3998), second.TotalPrice())
}

func TestHydrationUnreadableSlotStartsEmpty(t *testing.T) {
	slot := &memorySlot{loadErr: errors.New("disk on fire")}

	store := NewCartStore(context.Background(), slot, nil, testLogger())
	assert.Empty(t, store.Snapshot())
	assert.Equal(t, 0, store.TotalItems())
}

func TestPersistenceFailureDoesNotFailMutation(t *testing.T) {
	slot := &memorySlot{saveErr: errors.New("read-only filesystem")}
	store := NewCartStore(context.Background(), slot, nil, testLogger())
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, product("p1", 100)))
	assert.Equal(t, 1, store.TotalItems(), "in-memory state stays authoritative")
}

func TestShoppingSession(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, product("a", 100)))
	assert.Equal(t, 1, store.TotalItems())
	assert.Equal(t, int64(100), store.TotalPrice())

	require.NoError(t, store.AddItem(ctx, product("b", 250)))
	assert.Equal(t, 2, store.TotalItems())
	assert.Equal(t, int64(350), store.TotalPrice())

	require.NoError(t, store.AddItem(ctx, product("a", 100)))
	assert.Equal(t, 3, store.TotalItems())
	assert.Equal(t, int64(450), store.TotalPrice())

	snap := store.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, 2, snap[0].Quantity)
	assert.Equal(t, 1, snap[1].Quantity)

	require.NoError(t, store.RemoveItem(ctx, "b"))
	assert.Equal(t, 2, store.TotalItems())
	assert.Equal(t, int64(200), store.TotalPrice())

	require.NoError(t, store.UpdateQuantity(ctx, "a", 5))
	assert.Equal(t, 5, store.TotalItems())
	assert.Equal(t, int64(500), store.TotalPrice())
}

func TestIdempotentRemoval(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, product("a", 100)))
	require.NoError(t, store.AddItem(ctx, product("b", 250)))

	require.NoError(t, store.RemoveItem(ctx, "a"))
	after := store.Snapshot()

	require.NoError(t, store.RemoveItem(ctx, "a"))
	assert.Equal(t, after, store.Snapshot(), "second removal changes nothing")
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ch, cancel := store.Subscribe()
	defer cancel()

	require.NoError(t, store.AddItem(ctx, product("p1", 100)))

	snap := <-ch
	require.Len(t, snap, 1)
	assert.Equal(t, "p1", snap[0].ID)
}

func TestAllSubscribersSeeTheSameSnapshot(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	chA, cancelA := store.Subscribe()
	defer cancelA()
	chB, cancelB := store.Subscribe()
	defer cancelB()

	require.NoError(t, store.AddItem(ctx, product("p1", 100)))

	snapA := <-chA
	snapB := <-chB
	assert.Equal(t, snapA, snapB)
}

func TestSubscribeCoalescesBursts(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ch, cancel := store.Subscribe()
	defer cancel()

	// subscriber does not drain while several mutations land
	for i := 0; i < 5; i++ {
		require.NoError(t, store.AddItem(ctx, product("p1", 100)))
	}

	snap := <-ch
	require.Len(t, snap, 1)
	assert.Equal(t, 5, snap[0].Quantity, "a slow subscriber sees the latest state")

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "no stale intermediate snapshots should remain buffered")
	default:
	}
}

func TestSubscribeCancelStopsDelivery(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ch, cancel := store.Subscribe()
	cancel()
	cancel() // cancelling twice is safe

	require.NoError(t, store.AddItem(ctx, product("p1", 100)))

	_, ok := <-ch
	assert.False(t, ok, "cancelled subscription channel is closed")
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu      sync.Mutex
	updated []domain.Snapshot
	cleared []int
	err     error
}

func (r *recordingPublisher) PublishCartUpdated(_ context.Context, snap domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, snap)
	return r.err
}

func (r *recordingPublisher) PublishCartCleared(_ context.Context, removed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared = append(r.cleared, removed)
	return r.err
}

func TestEventsPublishedBestEffort(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	store := NewCartStore(ctx, &memorySlot{}, pub, testLogger())

	require.NoError(t, store.AddItem(ctx, product("p1", 100)))
	require.NoError(t, store.Clear(ctx))

	require.Len(t, pub.updated, 1)
	assert.Equal(t, []int{1}, pub.cleared)

	// publish failures never fail the mutation
	pub.err = errors.New("broker unreachable")
	assert.NoError(t, store.AddItem(ctx, product("p2", 200)))
}

func TestConcurrentMutations(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	const workers = 8
	const addsPerWorker = 25

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < addsPerWorker; i++ {
				_ = store.AddItem(ctx, product(fmt.Sprintf("w%d-p%d", w, i), 10))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*addsPerWorker, store.TotalItems())
	assert.Equal(t, int64(workers*addsPerWorker*10), store.TotalPrice())
}
