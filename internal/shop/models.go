package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
}

func (p Product) InStock() bool { return p.Stock > 0 }

// CartItem is one persisted (user, product) row. Quantity is always >= 1;
// a row whose quantity would drop below 1 is deleted instead.
type CartItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// CartLine is a cart row joined with its product (select "*, products(*)").
type CartLine struct {
	CartItem
	Product Product `json:"products"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// ShortID is the prefix shown to customers ("Pedido #1a2b3c4d").
func (o Order) ShortID() string {
	if len(o.ID) <= 8 {
		return o.ID
	}
	return o.ID[:8]
}

// OrderItem keeps the price the product had when the order was placed.
type OrderItem struct {
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderLine is an order item joined with the product row, for the order page.
type OrderLine struct {
	OrderItem
	Product Product `json:"products"`
}

type Payment struct {
	OrderID string        `json:"order_id"`
	Status  PaymentStatus `json:"status"`
	Method  PaymentMethod `json:"payment_method"`
}

type OrderDetail struct {
	Order   Order
	Lines   []OrderLine
	Payment *Payment
}

type User struct {
	ID    string
	Email string
	Name  string
}

// DisplayName falls back to the e-mail when the account has no name metadata.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

type Session struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
}

func (s Session) User() User {
	return User{ID: s.UserID, Email: s.Email, Name: s.Name}
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
