package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/psvit/storefront/internal/domain"
	"github.com/psvit/storefront/internal/repository"
	apperrors "github.com/psvit/storefront/pkg/errors"
)

// Cart upper-bound limits to prevent abuse.
const (
	// MaxLineQuantity is the maximum quantity allowed for a single cart line.
	MaxLineQuantity = 10_000
	// MaxCartLines is the maximum number of distinct lines allowed in the cart.
	MaxCartLines = 500
)

// EventPublisher publishes cart domain events. A nil publisher disables
// event publishing.
type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, snap domain.Snapshot) error
	PublishCartCleared(ctx context.Context, removedCount int) error
}

// CartStore holds the single shared cart. All mutations are serialized
// through a mutex, persisted best effort to the snapshot slot and fanned
// out to subscribers. Persistence failures never fail the mutation; they
// are logged and the in-memory state stays authoritative.
type CartStore struct {
	mu      sync.Mutex
	lines   domain.Snapshot
	slot    repository.SnapshotSlot
	events  EventPublisher
	logger  *slog.Logger
	subs    map[int]chan domain.Snapshot
	nextSub int
}

// NewCartStore creates the cart store and hydrates it from the snapshot
// slot. A missing, corrupt or version-mismatched slot starts the cart
// empty; the failure is logged, never returned.
func NewCartStore(ctx context.Context, slot repository.SnapshotSlot, events EventPublisher, logger *slog.Logger) *CartStore {
	s := &CartStore{
		slot:   slot,
		events: events,
		logger: logger,
		subs:   make(map[int]chan domain.Snapshot),
	}

	snap, err := slot.Load(ctx)
	if err != nil {
		logger.WarnContext(ctx, "cart slot could not be read, starting empty",
			slog.String("error", err.Error()),
		)
		snap = nil
	}
	if snap == nil {
		snap = domain.Snapshot{}
	}
	s.lines = snap

	return s
}

// AddItem adds one unit of the product to the cart. If the product is
// already in the cart only the quantity is incremented; the frozen product
// fields keep the values captured when the line was first added.
func (s *CartStore) AddItem(ctx context.Context, p domain.Product) error {
	if p.ID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if p.Price < 0 {
		return apperrors.InvalidInput("price must not be negative")
	}

	s.mu.Lock()
	idx := s.lines.FindLine(p.ID)
	if idx >= 0 {
		if s.lines[idx].Quantity >= MaxLineQuantity {
			s.mu.Unlock()
			return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxLineQuantity))
		}
		s.lines[idx].Quantity++
	} else {
		if len(s.lines) >= MaxCartLines {
			s.mu.Unlock()
			return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d lines", MaxCartLines))
		}
		s.lines = append(s.lines, domain.CartLine{Product: p, Quantity: 1})
	}
	snap := s.commitLocked(ctx)
	s.mu.Unlock()

	s.publishUpdated(ctx, snap)

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("product_id", p.ID),
		slog.Int("total_items", snap.TotalItems()),
	)

	return nil
}

// RemoveItem removes the whole line for the product. Removing a product
// that is not in the cart is a no-op.
func (s *CartStore) RemoveItem(ctx context.Context, productID string) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	s.mu.Lock()
	idx := s.lines.FindLine(productID)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	snap := s.commitLocked(ctx)
	s.mu.Unlock()

	s.publishUpdated(ctx, snap)

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("product_id", productID),
	)

	return nil
}

// UpdateQuantity sets the quantity of an existing line. A quantity below 1
// is ignored, as is a product that is not in the cart.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if quantity > MaxLineQuantity {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxLineQuantity))
	}
	if quantity < 1 {
		return nil
	}

	s.mu.Lock()
	idx := s.lines.FindLine(productID)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	if s.lines[idx].Quantity == quantity {
		s.mu.Unlock()
		return nil
	}
	s.lines[idx].Quantity = quantity
	snap := s.commitLocked(ctx)
	s.mu.Unlock()

	s.publishUpdated(ctx, snap)

	s.logger.InfoContext(ctx, "cart quantity updated",
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return nil
}

// Clear empties the cart and removes the persisted slot.
func (s *CartStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	removed := s.lines.TotalItems()
	s.lines = domain.Snapshot{}

	if err := s.slot.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "cart persistence write failed",
			slog.String("operation", "clear"),
			slog.String("error", err.Error()),
		)
	}
	snap := s.lines.Clone()
	s.notifyLocked(snap)
	s.mu.Unlock()

	if s.events != nil {
		if err := s.events.PublishCartCleared(ctx, removed); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.Int("removed_items", removed),
	)

	return nil
}

// Snapshot returns a copy of the current cart contents.
func (s *CartStore) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.Clone()
}

// TotalItems returns the sum of quantities across all lines.
func (s *CartStore) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.TotalItems()
}

// TotalPrice returns the cart total in minor units.
func (s *CartStore) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines.TotalPrice()
}

// Subscribe registers for cart change notifications. The channel carries
// the latest snapshot and coalesces: a slow consumer sees the most recent
// state, not every intermediate one. The returned cancel function must be
// called to release the subscription.
func (s *CartStore) Subscribe() (<-chan domain.Snapshot, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan domain.Snapshot, 1)
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// commitLocked persists the current state and notifies subscribers. Must
// be called with the mutex held. Returns a snapshot for use after unlock.
func (s *CartStore) commitLocked(ctx context.Context) domain.Snapshot {
	snap := s.lines.Clone()

	if err := s.slot.Save(ctx, snap); err != nil {
		s.logger.ErrorContext(ctx, "cart persistence write failed",
			slog.String("operation", "save"),
			slog.String("error", err.Error()),
		)
	}

	s.notifyLocked(snap)
	return snap
}

// notifyLocked fans the snapshot out to all subscribers without blocking.
// Each subscriber channel holds at most the latest snapshot.
func (s *CartStore) notifyLocked(snap domain.Snapshot) {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *CartStore) publishUpdated(ctx context.Context, snap domain.Snapshot) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishCartUpdated(ctx, snap); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("error", err.Error()),
		)
	}
}
