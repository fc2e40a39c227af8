package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/shop"
	"github.com/ariefcatur/go-storefront/internal/shop/shoptest"
)

func product(id, name, price, category string, stock int) shop.Product {
	return shop.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Category: category, Stock: stock}
}

var sample = []shop.Product{
	product("p1", "fone", "10.00", "audio", 2),
	product("p2", "Caixa de som", "99.90", "audio", 0),
	product("p3", "Mouse", "45.50", "perifericos", 7),
}

func names(ps []shop.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestFilter(t *testing.T) {
	assert.Equal(t, []string{"Caixa de som", "fone", "Mouse"}, names(Filter(sample, AllCategories, SortName)))
	assert.Equal(t, []string{"fone", "Mouse", "Caixa de som"}, names(Filter(sample, "", SortPriceAsc)))
	assert.Equal(t, []string{"Caixa de som", "Mouse", "fone"}, names(Filter(sample, "", SortPriceDesc)))
	assert.Equal(t, []string{"Caixa de som", "fone"}, names(Filter(sample, "audio", "bogus")))
	assert.Empty(t, Filter(sample, "livros", SortName))

	// the input keeps its order
	assert.Equal(t, "p1", sample[0].ID)
}

func TestNewListingDefaults(t *testing.T) {
	l := NewListing(sample, "", "")

	assert.Equal(t, AllCategories, l.Category)
	assert.Equal(t, SortName, l.Sort)
	assert.Equal(t, []string{"audio", "perifericos"}, l.Categories)
	assert.Len(t, l.Visible, 3)
}

type fixture struct {
	svc   *Service
	store *shoptest.MemStore
	mr    *miniredis.Miniredis
	user  shop.User
}

func newFixture(t *testing.T, products ...shop.Product) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := shoptest.NewMemStore(products...)
	return fixture{
		svc: &Service{
			Store:   store,
			Redis:   rdb,
			TTL:     time.Minute,
			Counter: &cart.Counter{Store: store, Redis: rdb, TTL: 10 * time.Second, Log: zerolog.Nop()},
			Log:     zerolog.Nop(),
		},
		store: store,
		mr:    mr,
		user:  shop.User{ID: "u1", Email: "ana@example.com"},
	}
}

func TestProductsAreCached(t *testing.T) {
	f := newFixture(t, sample...)
	ctx := context.Background()

	first, err := f.svc.Products(ctx)
	require.NoError(t, err)
	second, err := f.svc.Products(ctx)
	require.NoError(t, err)

	assert.Equal(t, names(first), names(second))
	assert.True(t, first[0].Price.Equal(second[0].Price))
	assert.Equal(t, 1, f.store.CallCount("ListProducts"))

	f.mr.FastForward(2 * time.Minute)
	_, err = f.svc.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.CallCount("ListProducts"))
}

func TestLoadFailure(t *testing.T) {
	f := newFixture(t)
	f.store.Fail["ListProducts"] = errors.New("boom")

	_, err := f.svc.Load(context.Background(), "", "")

	assert.Equal(t, MsgLoadFailed, shop.Message(err, ""))
}

func TestAddToCartUpToStock(t *testing.T) {
	f := newFixture(t, sample...)
	ctx := context.Background()

	msg, err := f.svc.AddToCart(ctx, f.user, "p1", sample)
	require.NoError(t, err)
	assert.Equal(t, MsgAdded, msg)

	msg, err = f.svc.AddToCart(ctx, f.user, "p1", sample)
	require.NoError(t, err)
	assert.Equal(t, MsgUpdated, msg)

	_, err = f.svc.AddToCart(ctx, f.user, "p1", sample)
	assert.ErrorIs(t, err, shop.ErrStockLimit)
	assert.Equal(t, "Quantidade máxima em estoque atingida.", shop.Message(err, ""))

	lines, err := f.store.ListCartLines(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "R$ 20,00", shop.FormatBRL(shop.Subtotal(lines)))
}

func TestAddToCartRejectsBeforeBackend(t *testing.T) {
	f := newFixture(t, sample...)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, shop.User{}, "p1", sample)
	assert.ErrorIs(t, err, ErrLoginRequired)
	_, err = f.svc.AddToCart(ctx, f.user, "missing", sample)
	assert.ErrorIs(t, err, ErrUnknownProduct)
	_, err = f.svc.AddToCart(ctx, f.user, "p2", sample)
	assert.ErrorIs(t, err, ErrOutOfStock)

	assert.Empty(t, f.store.Calls)
}

func TestAddToCartLookupFailure(t *testing.T) {
	f := newFixture(t, sample...)
	f.store.Fail["FindCartItem"] = errors.New("timeout")

	_, err := f.svc.AddToCart(context.Background(), f.user, "p1", sample)

	assert.Equal(t, MsgAddFailed, shop.Message(err, ""))
	assert.Zero(t, f.store.CallCount("InsertCartItem"))
}

func TestAddToCartInvalidatesCount(t *testing.T) {
	f := newFixture(t, sample...)
	ctx := context.Background()
	assert.Equal(t, 0, f.svc.Counter.Count(ctx, f.user.ID))

	_, err := f.svc.AddToCart(ctx, f.user, "p3", sample)
	require.NoError(t, err)

	assert.Equal(t, 1, f.svc.Counter.Count(ctx, f.user.ID))
}

func TestDuplicateRowsFallBackToInsert(t *testing.T) {
	f := newFixture(t, sample...)
	f.store.AddCartItem(f.user.ID, "p3", 1)
	f.store.AddCartItem(f.user.ID, "p3", 1)

	msg, err := f.svc.AddToCart(context.Background(), f.user, "p3", sample)

	require.NoError(t, err)
	assert.Equal(t, MsgAdded, msg)
	assert.Len(t, f.store.Cart, 3)
}
