package baas

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

const (
	tableProducts   = "products"
	tableCartItems  = "cart_items"
	tableOrders     = "orders"
	tableOrderItems = "order_items"
	tablePayments   = "payments"
)

// Store runs the shop tables through the backend's REST API.
type Store struct {
	c *Client
}

var _ shop.Store = (*Store)(nil)

func NewStore(c *Client) *Store { return &Store{c: c} }

func (s *Store) ListProducts(ctx context.Context) ([]shop.Product, error) {
	var out []shop.Product
	err := s.c.From(tableProducts).Select("*").Order("name", true).Execute(ctx, &out)
	return out, err
}

func (s *Store) FindCartItem(ctx context.Context, userID, productID string) (shop.CartItem, error) {
	var it shop.CartItem
	err := s.c.From(tableCartItems).
		Select("*").
		Eq("user_id", userID).
		Eq("product_id", productID).
		Single(ctx, &it)
	return it, err
}

type cartRow struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (s *Store) InsertCartItem(ctx context.Context, item shop.CartItem) error {
	return s.c.From(tableCartItems).Insert(ctx, cartRow{
		UserID:    item.UserID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	}, nil)
}

func (s *Store) UpdateCartItemQuantity(ctx context.Context, itemID string, quantity int) error {
	return s.c.From(tableCartItems).Eq("id", itemID).Update(ctx, map[string]int{"quantity": quantity})
}

func (s *Store) DeleteCartItem(ctx context.Context, itemID string) error {
	return s.c.From(tableCartItems).Eq("id", itemID).Delete(ctx)
}

func (s *Store) ListCartLines(ctx context.Context, userID string) ([]shop.CartLine, error) {
	var out []shop.CartLine
	err := s.c.From(tableCartItems).
		Select("*, products(*)").
		Eq("user_id", userID).
		Order("created_at", false).
		Execute(ctx, &out)
	return out, err
}

func (s *Store) CartQuantities(ctx context.Context, userID string) ([]int, error) {
	var rows []struct {
		Quantity int `json:"quantity"`
	}
	if err := s.c.From(tableCartItems).Select("quantity").Eq("user_id", userID).Execute(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Quantity)
	}
	return out, nil
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	return s.c.From(tableCartItems).Eq("user_id", userID).Delete(ctx)
}

type orderRow struct {
	UserID string           `json:"user_id"`
	Total  decimal.Decimal  `json:"total"`
	Status shop.OrderStatus `json:"status"`
}

func (s *Store) CreateOrder(ctx context.Context, order shop.Order) (shop.Order, error) {
	var out shop.Order
	err := s.c.From(tableOrders).Select("*").InsertSingle(ctx, orderRow{
		UserID: order.UserID,
		Total:  order.Total,
		Status: order.Status,
	}, &out)
	return out, err
}

func (s *Store) InsertOrderItems(ctx context.Context, items []shop.OrderItem) error {
	return s.c.From(tableOrderItems).Insert(ctx, items, nil)
}

func (s *Store) InsertPayment(ctx context.Context, payment shop.Payment) error {
	return s.c.From(tablePayments).Insert(ctx, payment, nil)
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (shop.Order, error) {
	var o shop.Order
	err := s.c.From(tableOrders).Select("*").Eq("id", orderID).Single(ctx, &o)
	return o, err
}

func (s *Store) ListOrderLines(ctx context.Context, orderID string) ([]shop.OrderLine, error) {
	var out []shop.OrderLine
	err := s.c.From(tableOrderItems).Select("*, products(*)").Eq("order_id", orderID).Execute(ctx, &out)
	return out, err
}

func (s *Store) GetPayment(ctx context.Context, orderID string) (shop.Payment, error) {
	var p shop.Payment
	err := s.c.From(tablePayments).Select("*").Eq("order_id", orderID).Single(ctx, &p)
	return p, err
}
