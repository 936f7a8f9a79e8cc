package cart

import (
	"errors"
	"sync"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

var ErrInvalidItem = errors.New("invalid cart item")

// Item is one cart line. Its JSON shape is the one frozen into orders.
type Item = domain.OrderItem

// Observer is called after every mutation with a copy of the items.
type Observer func(items []Item)

// Store holds the line items of a single shopping session.
type Store struct {
	mu        sync.RWMutex
	items     []Item
	observers []Observer
}

func NewStore(items ...Item) *Store {
	s := &Store{}
	for _, item := range items {
		if validItem(item) {
			s.items = append(s.items, item)
		}
	}
	return s
}

// AddItem appends item, or adds its quantity to an existing line with the
// same id. Name, price and category are refreshed from the new item.
func (s *Store) AddItem(item Item) error {
	if !validItem(item) {
		return ErrInvalidItem
	}

	s.mu.Lock()
	merged := false
	for i := range s.items {
		if s.items[i].ProductID == item.ProductID {
			s.items[i].Quantity += item.Quantity
			s.items[i].Name = item.Name
			s.items[i].Price = item.Price
			s.items[i].Category = item.Category
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, item)
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// RemoveItem drops the line with id. Removing an absent id is a no-op.
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ProductID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.mu.Unlock()

	s.notify()
}

// Subtract lowers each matching line by the given quantity and drops lines
// that reach zero. Lines not present are ignored.
func (s *Store) Subtract(items ...Item) {
	s.mu.Lock()
	for _, sub := range items {
		for i := range s.items {
			if s.items[i].ProductID == sub.ProductID {
				s.items[i].Quantity -= sub.Quantity
				break
			}
		}
	}
	kept := s.items[:0]
	for _, item := range s.items {
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.mu.Unlock()

	s.notify()
}

func (s *Store) ClearCart() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	s.notify()
}

// Total is recomputed from the current items on every call.
func (s *Store) Total() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SumItems(s.items)
}

func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyItems()
}

// Snapshot returns the items and their total as of one instant.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Items: s.copyItems(),
		Total: domain.SumItems(s.items),
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Count is the total quantity across lines.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	observers := append([]Observer(nil), s.observers...)
	items := s.copyItems()
	s.mu.RUnlock()

	for _, o := range observers {
		o(items)
	}
}

func (s *Store) copyItems() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func validItem(item Item) bool {
	return item.ProductID != "" && item.Price > 0 && item.Quantity > 0
}

// Snapshot is an immutable view of a cart handed to checkout.
type Snapshot struct {
	Items []Item `json:"items"`
	Total int64  `json:"total"`
}

func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}
