package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

// Store serves the shop tables from Postgres directly. Each method is a
// single statement; like the REST backend it never opens a transaction.
type Store struct{ DB *pgxpool.Pool }

var _ shop.Store = (*Store)(nil)

const productColumns = `p.id::text, p.name, p.description, p.price::text, p.stock, p.category, p.image_url`

func scanProduct(row pgx.Row, extra ...any) (shop.Product, error) {
	var p shop.Product
	var price string
	dest := append([]any{&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.Category, &p.ImageURL}, extra...)
	if err := row.Scan(dest...); err != nil {
		return p, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return p, fmt.Errorf("product %s price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return p, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shop.ErrNotFound
	}
	return err
}

func (s *Store) ListProducts(ctx context.Context) ([]shop.Product, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+productColumns+` FROM products p ORDER BY p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []shop.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindCartItem has single-object semantics: anything other than exactly one
// matching row is shop.ErrNotFound, the same answer the REST backend gives.
func (s *Store) FindCartItem(ctx context.Context, userID, productID string) (shop.CartItem, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id::text, user_id::text, product_id::text, quantity, created_at
		FROM cart_items WHERE user_id = $1::uuid AND product_id = $2::uuid
		LIMIT 2`, userID, productID)
	if err != nil {
		return shop.CartItem{}, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (shop.CartItem, error) {
		var it shop.CartItem
		err := row.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CreatedAt)
		return it, err
	})
	if err != nil {
		return shop.CartItem{}, err
	}
	if len(items) != 1 {
		return shop.CartItem{}, shop.ErrNotFound
	}
	return items[0], nil
}

func (s *Store) InsertCartItem(ctx context.Context, item shop.CartItem) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO cart_items(user_id, product_id, quantity)
		VALUES ($1::uuid, $2::uuid, $3)`, item.UserID, item.ProductID, item.Quantity)
	return err
}

func (s *Store) UpdateCartItemQuantity(ctx context.Context, itemID string, quantity int) error {
	_, err := s.DB.Exec(ctx, `UPDATE cart_items SET quantity = $2 WHERE id = $1::uuid`, itemID, quantity)
	return err
}

func (s *Store) DeleteCartItem(ctx context.Context, itemID string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM cart_items WHERE id = $1::uuid`, itemID)
	return err
}

func (s *Store) ListCartLines(ctx context.Context, userID string) ([]shop.CartLine, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT `+productColumns+`, c.id::text, c.user_id::text, c.product_id::text, c.quantity, c.created_at
		FROM cart_items c JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1::uuid
		ORDER BY c.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []shop.CartLine
	for rows.Next() {
		var l shop.CartLine
		p, err := scanProduct(rows, &l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		l.Product = p
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) CartQuantities(ctx context.Context, userID string) ([]int, error) {
	rows, err := s.DB.Query(ctx, `SELECT quantity FROM cart_items WHERE user_id = $1::uuid`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1::uuid`, userID)
	return err
}

func (s *Store) CreateOrder(ctx context.Context, order shop.Order) (shop.Order, error) {
	var o shop.Order
	var total, status string
	err := s.DB.QueryRow(ctx, `
		INSERT INTO orders(user_id, total, status)
		VALUES ($1::uuid, $2::numeric, $3)
		RETURNING id::text, user_id::text, total::text, status, created_at`,
		order.UserID, order.Total.StringFixed(2), string(order.Status),
	).Scan(&o.ID, &o.UserID, &total, &status, &o.CreatedAt)
	if err != nil {
		return shop.Order{}, err
	}
	o.Status = shop.OrderStatus(status)
	o.Total, err = decimal.NewFromString(total)
	return o, err
}

func (s *Store) InsertOrderItems(ctx context.Context, items []shop.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, it := range items {
		b.Queue(`
			INSERT INTO order_items(order_id, product_id, quantity, price)
			VALUES ($1::uuid, $2::uuid, $3, $4::numeric)`,
			it.OrderID, it.ProductID, it.Quantity, it.Price.StringFixed(2))
	}
	return s.DB.SendBatch(ctx, b).Close()
}

func (s *Store) InsertPayment(ctx context.Context, payment shop.Payment) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO payments(order_id, status, payment_method)
		VALUES ($1::uuid, $2, $3)`,
		payment.OrderID, string(payment.Status), string(payment.Method))
	return err
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (shop.Order, error) {
	var o shop.Order
	var total, status string
	err := s.DB.QueryRow(ctx, `
		SELECT id::text, user_id::text, total::text, status, created_at
		FROM orders WHERE id = $1::uuid`, orderID,
	).Scan(&o.ID, &o.UserID, &total, &status, &o.CreatedAt)
	if err != nil {
		return shop.Order{}, notFound(err)
	}
	o.Status = shop.OrderStatus(status)
	o.Total, err = decimal.NewFromString(total)
	return o, err
}

func (s *Store) ListOrderLines(ctx context.Context, orderID string) ([]shop.OrderLine, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT `+productColumns+`, i.order_id::text, i.product_id::text, i.quantity, i.price::text
		FROM order_items i JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1::uuid
		ORDER BY p.name`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []shop.OrderLine
	for rows.Next() {
		var l shop.OrderLine
		var price string
		p, err := scanProduct(rows, &l.OrderID, &l.ProductID, &l.Quantity, &price)
		if err != nil {
			return nil, err
		}
		if l.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		l.Product = p
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) GetPayment(ctx context.Context, orderID string) (shop.Payment, error) {
	var p shop.Payment
	var status, method string
	err := s.DB.QueryRow(ctx, `
		SELECT order_id::text, status, payment_method
		FROM payments WHERE order_id = $1::uuid
		ORDER BY created_at DESC LIMIT 1`, orderID,
	).Scan(&p.OrderID, &status, &method)
	if err != nil {
		return shop.Payment{}, notFound(err)
	}
	p.Status = shop.PaymentStatus(status)
	p.Method = shop.PaymentMethod(method)
	return p, nil
}
