package usecase

import (
	"sync"

	"github.com/sokoide/shopfront/pkg/domain"
)

// ListView holds one screen's copy of a server list. It is replaced
// wholesale on every read and never merged.
type ListView[T any] struct {
	mu     sync.RWMutex
	items  []T
	loaded bool
}

// Replace swaps in a fresh read.
func (v *ListView[T]) Replace(items []T) {
	cp := make([]T, len(items))
	copy(cp, items)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = cp
	v.loaded = true
}

// Items returns a copy of the current state.
func (v *ListView[T]) Items() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	cp := make([]T, len(v.items))
	copy(cp, v.items)
	return cp
}

func (v *ListView[T]) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.items)
}

// Loaded reports whether at least one read has landed.
func (v *ListView[T]) Loaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

func (v *ListView[T]) update(fn func([]T) []T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = fn(v.items)
}

// CartView is the cart screen state.
type CartView struct {
	ListView[domain.CartLine]
}

// RemoveOne applies the local cart-removal patch: a line holding a single
// unit disappears, any other line loses one unit. Unknown ids are ignored.
func (c *CartView) RemoveOne(productID string) {
	c.update(func(lines []domain.CartLine) []domain.CartLine {
		out := make([]domain.CartLine, 0, len(lines))
		for _, l := range lines {
			if l.ProductID != productID {
				out = append(out, l)
				continue
			}
			if l.Quantity-1 == 0 {
				continue
			}
			l.Quantity--
			out = append(out, l)
		}
		return out
	})
}

// Total is the cart total at the moment of the call.
func (c *CartView) Total() string {
	return domain.CartTotal(c.Items()).StringFixed(2)
}

// Draft is a controlled form bound to a local value that can be reset to its initial state.
type Draft[T any] struct {
	mu      sync.Mutex
	initial T
	current T
}

func NewDraft[T any](initial T) *Draft[T] {
	return &Draft[T]{initial: initial, current: initial}
}

// Update edits the draft in place.
func (d *Draft[T]) Update(fn func(*T)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.current)
}

func (d *Draft[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *Draft[T]) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = d.initial
}
