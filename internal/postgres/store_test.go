package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://app:secret@db:5432/shop?sslmode=disable", migrateURL("postgres://app:secret@db:5432/shop?sslmode=disable"))
	assert.Equal(t, "pgx5://db/shop", migrateURL("postgresql://db/shop"))
	assert.Equal(t, "pgx5://db/shop", migrateURL("pgx5://db/shop"))
}

// StoreSuite needs a disposable database: POSTGRES_TEST_DSN.
type StoreSuite struct {
	suite.Suite
	pool  *pgxpool.Pool
	store *Store
}

func TestStoreSuite(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	suite.Run(t, &StoreSuite{})
}

func (s *StoreSuite) SetupSuite() {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	s.Require().NoError(Migrate(dsn))
	pool, err := Connect(context.Background(), dsn, "storefront-test")
	s.Require().NoError(err)
	s.pool = pool
	s.store = &Store{DB: pool}
}

func (s *StoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *StoreSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(),
		`TRUNCATE payments, order_items, orders, cart_items, products RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
}

func (s *StoreSuite) insertProduct(name, price string, stock int) string {
	var id string
	err := s.pool.QueryRow(context.Background(), `
		INSERT INTO products(name, description, price, stock, category)
		VALUES ($1, 'desc', $2::numeric, $3, 'audio') RETURNING id::text`, name, price, stock).Scan(&id)
	s.Require().NoError(err)
	return id
}

func (s *StoreSuite) TestCartLifecycle() {
	ctx := context.Background()
	user := uuid.NewString()
	pid := s.insertProduct("Fone", "10.00", 2)

	_, err := s.store.FindCartItem(ctx, user, pid)
	s.ErrorIs(err, shop.ErrNotFound)

	s.Require().NoError(s.store.InsertCartItem(ctx, shop.CartItem{UserID: user, ProductID: pid, Quantity: 1}))
	it, err := s.store.FindCartItem(ctx, user, pid)
	s.Require().NoError(err)
	s.Equal(1, it.Quantity)

	s.Require().NoError(s.store.UpdateCartItemQuantity(ctx, it.ID, 2))
	lines, err := s.store.ListCartLines(ctx, user)
	s.Require().NoError(err)
	s.Require().Len(lines, 1)
	s.Equal("Fone", lines[0].Product.Name)
	s.True(decimal.NewFromInt(20).Equal(shop.Subtotal(lines)))

	qs, err := s.store.CartQuantities(ctx, user)
	s.Require().NoError(err)
	s.Equal([]int{2}, qs)

	s.Require().NoError(s.store.DeleteCartItem(ctx, it.ID))
	lines, err = s.store.ListCartLines(ctx, user)
	s.Require().NoError(err)
	s.Empty(lines)
}

func (s *StoreSuite) TestOrderWrites() {
	ctx := context.Background()
	user := uuid.NewString()
	pid := s.insertProduct("Caixa de som", "99.90", 5)

	o, err := s.store.CreateOrder(ctx, shop.Order{UserID: user, Total: decimal.RequireFromString("199.80"), Status: shop.OrderPending})
	s.Require().NoError(err)
	s.NotEmpty(o.ID)

	s.Require().NoError(s.store.InsertOrderItems(ctx, []shop.OrderItem{
		{OrderID: o.ID, ProductID: pid, Quantity: 2, Price: decimal.RequireFromString("99.90")},
	}))
	s.Require().NoError(s.store.InsertPayment(ctx, shop.Payment{OrderID: o.ID, Status: shop.PaymentPending, Method: shop.PaymentPix}))

	got, err := s.store.GetOrder(ctx, o.ID)
	s.Require().NoError(err)
	s.Equal(user, got.UserID)
	s.True(decimal.RequireFromString("199.80").Equal(got.Total))

	lines, err := s.store.ListOrderLines(ctx, o.ID)
	s.Require().NoError(err)
	s.Require().Len(lines, 1)
	s.Equal("Caixa de som", lines[0].Product.Name)

	p, err := s.store.GetPayment(ctx, o.ID)
	s.Require().NoError(err)
	s.Equal(shop.PaymentPix, p.Method)

	_, err = s.store.GetOrder(ctx, uuid.NewString())
	s.ErrorIs(err, shop.ErrNotFound)
}

func TestStoreImplementsShopStore(t *testing.T) {
	var st shop.Store = &Store{}
	require.NotNil(t, st)
}
