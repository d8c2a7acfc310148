package weddingplanner

import "sync"

// CartItem is something a client intends to book. Items are keyed by Type
// and ID, so the same service cannot be added twice.
type CartItem struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	VendorName  string  `json:"vendorName,omitempty"`
}

// Cart holds the items awaiting checkout.
type Cart interface {
	Items() []CartItem
	Clear()
}

// MemoryCart is an in-memory Cart safe for concurrent use. Items keep the
// order they were first added in.
type MemoryCart struct {
	mu    sync.Mutex
	items []CartItem
}

// NewMemoryCart returns a cart holding items, dropping duplicates.
func NewMemoryCart(items ...CartItem) *MemoryCart {
	c := &MemoryCart{}
	for _, it := range items {
		c.Add(it)
	}
	return c
}

// Add puts item in the cart. It reports false when an item with the same
// type and id is already there.
func (c *MemoryCart) Add(item CartItem) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(item.Type, item.ID) >= 0 {
		return false
	}
	c.items = append(c.items, item)
	return true
}

// Remove drops the item with the given type and id.
func (c *MemoryCart) Remove(itemType, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(itemType, id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// Items returns a copy of the cart contents.
func (c *MemoryCart) Items() []CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items.
func (c *MemoryCart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Total sums item prices.
func (c *MemoryCart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, it := range c.items {
		total += it.Price
	}
	return total
}

// Clear empties the cart.
func (c *MemoryCart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

func (c *MemoryCart) indexOf(itemType, id string) int {
	for i, it := range c.items {
		if it.Type == itemType && it.ID == id {
			return i
		}
	}
	return -1
}
