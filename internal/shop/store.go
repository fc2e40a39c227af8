package shop

import "context"

// Store is the table surface of the storefront: products, cart_items,
// orders, order_items and payments. It is implemented over the hosted
// backend's REST API and over a direct Postgres connection. Writes are
// independent calls; nothing here spans a transaction.
type Store interface {
	ListProducts(ctx context.Context) ([]Product, error)

	FindCartItem(ctx context.Context, userID, productID string) (CartItem, error)
	InsertCartItem(ctx context.Context, item CartItem) error
	UpdateCartItemQuantity(ctx context.Context, itemID string, quantity int) error
	DeleteCartItem(ctx context.Context, itemID string) error
	ListCartLines(ctx context.Context, userID string) ([]CartLine, error)
	CartQuantities(ctx context.Context, userID string) ([]int, error)
	ClearCart(ctx context.Context, userID string) error

	CreateOrder(ctx context.Context, order Order) (Order, error)
	InsertOrderItems(ctx context.Context, items []OrderItem) error
	InsertPayment(ctx context.Context, payment Payment) error
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListOrderLines(ctx context.Context, orderID string) ([]OrderLine, error)
	GetPayment(ctx context.Context, orderID string) (Payment, error)
}
