package menu

import (
	"errors"
	"sync"

	"qrdine-backend/internal/models"
)

var (
	ErrItemUnavailable = errors.New("item is not available")
	ErrItemNotInCart   = errors.New("item is not in the cart")
)

// Cart holds the lines one table has picked, keyed by item name.
type Cart struct {
	lines []models.CartLine
}

func (c *Cart) find(name string) int {
	for i, l := range c.lines {
		if l.Item.Name == name {
			return i
		}
	}
	return -1
}

// Add puts one more of item into the cart.
func (c *Cart) Add(item models.MenuItem) error {
	if !item.Available() {
		return ErrItemUnavailable
	}
	if i := c.find(item.Name); i >= 0 {
		c.lines[i].Qty++
		return nil
	}
	c.lines = append(c.lines, models.CartLine{Item: item, Qty: 1})
	return nil
}

// Decrease takes one away, dropping the line when it reaches zero.
func (c *Cart) Decrease(name string) error {
	i := c.find(name)
	if i < 0 {
		return ErrItemNotInCart
	}
	c.lines[i].Qty--
	if c.lines[i].Qty <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
	return nil
}

func (c *Cart) Remove(name string) error {
	i := c.find(name)
	if i < 0 {
		return ErrItemNotInCart
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return nil
}

func (c *Cart) Qty(name string) int {
	if i := c.find(name); i >= 0 {
		return c.lines[i].Qty
	}
	return 0
}

func (c *Cart) Lines() []models.CartLine {
	return append([]models.CartLine(nil), c.lines...)
}

func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.lines {
		total += l.Item.Price * float64(l.Qty)
	}
	return total
}

// CartBook holds one cart per table.
type CartBook struct {
	mu    sync.Mutex
	carts map[int]*Cart
}

func NewCartBook() *CartBook {
	return &CartBook{carts: make(map[int]*Cart)}
}

func (b *CartBook) Add(table int, item models.MenuItem) (models.CartResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cart, ok := b.carts[table]
	if !ok {
		cart = &Cart{}
	}
	if err := cart.Add(item); err != nil {
		return models.CartResponse{}, err
	}
	b.carts[table] = cart
	return snapshot(table, cart), nil
}

func (b *CartBook) Decrease(table int, name string) (models.CartResponse, error) {
	return b.update(table, func(c *Cart) error { return c.Decrease(name) })
}

func (b *CartBook) Remove(table int, name string) (models.CartResponse, error) {
	return b.update(table, func(c *Cart) error { return c.Remove(name) })
}

// update applies fn to an existing cart and drops the cart once it is empty.
func (b *CartBook) update(table int, fn func(*Cart) error) (models.CartResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cart, ok := b.carts[table]
	if !ok {
		return models.CartResponse{}, ErrItemNotInCart
	}
	if err := fn(cart); err != nil {
		return models.CartResponse{}, err
	}
	if len(cart.lines) == 0 {
		delete(b.carts, table)
	}
	return snapshot(table, cart), nil
}

func (b *CartBook) Get(table int) models.CartResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	cart, ok := b.carts[table]
	if !ok {
		cart = &Cart{}
	}
	return snapshot(table, cart)
}

// Clear empties a table's cart, e.g. once the order reaches the kitchen.
func (b *CartBook) Clear(table int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.carts, table)
}

func snapshot(table int, c *Cart) models.CartResponse {
	lines := c.Lines()
	if lines == nil {
		lines = []models.CartLine{}
	}
	return models.CartResponse{Table: table, Lines: lines, Total: c.Total()}
}
