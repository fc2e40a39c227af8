// Package shoptest provides an in-memory shop.Store for service tests.
package shoptest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

// MemStore keeps every table in maps. Calls records the method name of each
// call in order; Fail makes the named method return the given error.
type MemStore struct {
	mu       sync.Mutex
	Products map[string]shop.Product
	Cart     map[string]shop.CartItem
	Orders   map[string]shop.Order
	Items    []shop.OrderItem
	Payments []shop.Payment
	Calls    []string
	Fail     map[string]error

	clock time.Time
}

var _ shop.Store = (*MemStore)(nil)

func NewMemStore(products ...shop.Product) *MemStore {
	m := &MemStore{
		Products: map[string]shop.Product{},
		Cart:     map[string]shop.CartItem{},
		Orders:   map[string]shop.Order{},
		Fail:     map[string]error{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, p := range products {
		m.Products[p.ID] = p
	}
	return m
}

func (m *MemStore) call(name string) error {
	m.Calls = append(m.Calls, name)
	return m.Fail[name]
}

func (m *MemStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// CallCount is the number of recorded calls of method name.
func (m *MemStore) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

// AddCartItem seeds a cart row and returns its id.
func (m *MemStore) AddCartItem(userID, productID string, quantity int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.Cart[id] = shop.CartItem{ID: id, UserID: userID, ProductID: productID, Quantity: quantity, CreatedAt: m.tick()}
	return id
}

func (m *MemStore) ListProducts(context.Context) ([]shop.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListProducts"); err != nil {
		return nil, err
	}
	out := make([]shop.Product, 0, len(m.Products))
	for _, p := range m.Products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) FindCartItem(_ context.Context, userID, productID string) (shop.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("FindCartItem"); err != nil {
		return shop.CartItem{}, err
	}
	var found []shop.CartItem
	for _, it := range m.Cart {
		if it.UserID == userID && it.ProductID == productID {
			found = append(found, it)
		}
	}
	if len(found) != 1 {
		return shop.CartItem{}, shop.ErrNotFound
	}
	return found[0], nil
}

func (m *MemStore) InsertCartItem(_ context.Context, item shop.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("InsertCartItem"); err != nil {
		return err
	}
	item.ID = uuid.NewString()
	item.CreatedAt = m.tick()
	m.Cart[item.ID] = item
	return nil
}

func (m *MemStore) UpdateCartItemQuantity(_ context.Context, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UpdateCartItemQuantity"); err != nil {
		return err
	}
	if it, ok := m.Cart[itemID]; ok {
		it.Quantity = quantity
		m.Cart[itemID] = it
	}
	return nil
}

func (m *MemStore) DeleteCartItem(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("DeleteCartItem"); err != nil {
		return err
	}
	delete(m.Cart, itemID)
	return nil
}

func (m *MemStore) ListCartLines(_ context.Context, userID string) ([]shop.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListCartLines"); err != nil {
		return nil, err
	}
	var out []shop.CartLine
	for _, it := range m.Cart {
		if it.UserID == userID {
			out = append(out, shop.CartLine{CartItem: it, Product: m.Products[it.ProductID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) CartQuantities(_ context.Context, userID string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CartQuantities"); err != nil {
		return nil, err
	}
	var out []int
	for _, it := range m.Cart {
		if it.UserID == userID {
			out = append(out, it.Quantity)
		}
	}
	return out, nil
}

func (m *MemStore) ClearCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ClearCart"); err != nil {
		return err
	}
	for id, it := range m.Cart {
		if it.UserID == userID {
			delete(m.Cart, id)
		}
	}
	return nil
}

func (m *MemStore) CreateOrder(_ context.Context, o shop.Order) (shop.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreateOrder"); err != nil {
		return shop.Order{}, err
	}
	o.ID = uuid.NewString()
	o.CreatedAt = m.tick()
	m.Orders[o.ID] = o
	return o, nil
}

func (m *MemStore) InsertOrderItems(_ context.Context, items []shop.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("InsertOrderItems"); err != nil {
		return err
	}
	m.Items = append(m.Items, items...)
	return nil
}

func (m *MemStore) InsertPayment(_ context.Context, p shop.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("InsertPayment"); err != nil {
		return err
	}
	m.Payments = append(m.Payments, p)
	return nil
}

func (m *MemStore) GetOrder(_ context.Context, orderID string) (shop.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetOrder"); err != nil {
		return shop.Order{}, err
	}
	o, ok := m.Orders[orderID]
	if !ok {
		return shop.Order{}, fmt.Errorf("order %s: %w", orderID, shop.ErrNotFound)
	}
	return o, nil
}

func (m *MemStore) ListOrderLines(_ context.Context, orderID string) ([]shop.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListOrderLines"); err != nil {
		return nil, err
	}
	var out []shop.OrderLine
	for _, it := range m.Items {
		if it.OrderID == orderID {
			out = append(out, shop.OrderLine{OrderItem: it, Product: m.Products[it.ProductID]})
		}
	}
	return out, nil
}

func (m *MemStore) GetPayment(_ context.Context, orderID string) (shop.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetPayment"); err != nil {
		return shop.Payment{}, err
	}
	for i := len(m.Payments) - 1; i >= 0; i-- {
		if m.Payments[i].OrderID == orderID {
			return m.Payments[i], nil
		}
	}
	return shop.Payment{}, shop.ErrNotFound
}
