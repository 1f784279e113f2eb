package cart

import (
	"context"
	"fmt"
	"sync"

	"labbook/models"

	"go.uber.org/zap"
)

// SnapshotStore persists the full item list of a cart under a key.
type SnapshotStore interface {
	Load(ctx context.Context, key string) ([]models.CartLineItem, error)
	Save(ctx context.Context, key string, items []models.CartLineItem) error
	Delete(ctx context.Context, key string) error
}

// Store is one visitor's cart. All mutation goes through its methods, which
// keep at most one line item per route and re-persist the whole cart after
// every change.
type Store struct {
	mu        sync.Mutex
	key       string
	items     []models.CartLineItem
	snapshots SnapshotStore
	logger    *zap.Logger
}

// Open rehydrates the cart stored under key. A missing or unreadable
// snapshot yields an empty cart.
func Open(ctx context.Context, key string, snapshots SnapshotStore, logger *zap.Logger) *Store {
	s := &Store{key: key, snapshots: snapshots, logger: logger}

	items, err := snapshots.Load(ctx, key)
	if err != nil {
		logger.Debug("ignoring unreadable cart snapshot", zap.String("cart", key), zap.Error(err))
		return s
	}

	seen := make(map[models.Route]bool, len(items))
	for _, item := range items {
		if !item.Route.Valid() || seen[item.Route] {
			continue
		}
		seen[item.Route] = true
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		s.items = append(s.items, item)
	}
	return s
}

func (s *Store) indexOf(route models.Route) int {
	for i := range s.items {
		if s.items[i].Route == route {
			return i
		}
	}
	return -1
}

func (s *Store) persist(ctx context.Context) error {
	if err := s.snapshots.Save(ctx, s.key, s.items); err != nil {
		s.logger.Error("failed to persist cart", zap.String("cart", s.key), zap.Error(err))
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

// Add appends item unless its route is already in the cart, in which case the
// call is a no-op and the first-added data is kept. An item without a valid
// route is rejected with models.ErrInvalidRoute and nothing changes.
func (s *Store) Add(ctx context.Context, item models.CartLineItem) (bool, error) {
	route, err := models.ParseRoute(string(item.Route))
	if err != nil {
		s.logger.Warn("add to cart without a route", zap.String("cart", s.key), zap.String("title", item.Title))
		return false, err
	}
	item.Route = route
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Duplicate adds are ignored rather than merged.
	if s.indexOf(route) >= 0 {
		return false, nil
	}
	s.items = append(s.items, item)
	return true, s.persist(ctx)
}

// Remove drops the line item for route. Unknown or empty routes are no-ops.
func (s *Store) Remove(ctx context.Context, route models.Route) (bool, error) {
	if route == "" {
		s.logger.Warn("remove from cart without a route", zap.String("cart", s.key))
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(route)
	if i < 0 {
		return false, nil
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return true, s.persist(ctx)
}

// SetQuantity sets the quantity of route, clamped to a minimum of 1.
func (s *Store) SetQuantity(ctx context.Context, route models.Route, quantity int) (bool, error) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(route)
	if i < 0 {
		return false, nil
	}
	s.items[i].Quantity = quantity
	return true, s.persist(ctx)
}

// Clear empties the cart and deletes its snapshot.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	if err := s.snapshots.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete cart snapshot: %w", err)
	}
	return nil
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []models.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.CartLineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len is the number of distinct line items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Totals sums the cart. Prices that failed to parse are already zero.
func (s *Store) Totals() models.CartTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeTotals(s.items)
}

// View is the storefront representation of the cart.
func (s *Store) View() models.CartView {
	items := s.Items()
	return models.CartView{Items: items, Totals: ComputeTotals(items)}
}

// ComputeTotals derives total, original total, savings and item count.
func ComputeTotals(items []models.CartLineItem) models.CartTotals {
	var t models.CartTotals
	for _, item := range items {
		t.Total = t.Total.Add(item.DiscountedPrice.Mul(item.Quantity))
		t.OriginalTotal = t.OriginalTotal.Add(item.Price.Mul(item.Quantity))
		t.ItemCount += item.Quantity
	}
	t.Savings = t.OriginalTotal.Sub(t.Total)
	return t
}
