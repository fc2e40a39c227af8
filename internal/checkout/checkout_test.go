package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/cart"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/shop"
	"github.com/ariefcatur/go-storefront/internal/shop/shoptest"
)

var (
	ana  = shop.User{ID: "u1", Email: "ana@example.com"}
	fone = shop.Product{ID: "p1", Name: "Fone", Price: decimal.RequireFromString("10.00"), Stock: 2}
)

type published struct {
	key []byte
	env shop.Envelope
}

type recorder struct{ msgs []published }

func (r *recorder) Publish(key, value []byte, _ ...kafkago.Header) {
	env, _ := kafkax.UnmarshalEnvelope(value)
	r.msgs = append(r.msgs, published{key: key, env: env})
}

func newService(t *testing.T) (*Service, *shoptest.MemStore, *recorder, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := shoptest.NewMemStore(fone)
	rec := &recorder{}
	return &Service{
		Store:       store,
		Counter:     &cart.Counter{Store: store, Redis: rdb, TTL: 10 * time.Second, Log: zerolog.Nop()},
		Events:      rec,
		ServiceName: "storefront",
		Log:         zerolog.Nop(),
	}, store, rec, mr
}

func TestPlaceOrder(t *testing.T) {
	svc, store, rec, mr := newService(t)
	ctx := context.Background()
	store.AddCartItem(ana.ID, fone.ID, 2)
	require.NoError(t, mr.Set("cart_count:u1", "2"))

	sum, err := svc.Load(ctx, ana)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(20).Equal(sum.Total))

	o, err := svc.PlaceOrder(ctx, ana, sum, "pix")
	require.NoError(t, err)

	assert.Equal(t, []string{"ListCartLines", "CreateOrder", "InsertOrderItems", "InsertPayment", "ClearCart"}, store.Calls)
	assert.Equal(t, shop.OrderPending, store.Orders[o.ID].Status)
	assert.True(t, decimal.NewFromInt(20).Equal(store.Orders[o.ID].Total))
	require.Len(t, store.Items, 1)
	assert.Equal(t, shop.OrderItem{OrderID: o.ID, ProductID: "p1", Quantity: 2, Price: fone.Price}, store.Items[0])
	assert.Equal(t, []shop.Payment{{OrderID: o.ID, Status: shop.PaymentPending, Method: shop.PaymentPix}}, store.Payments)
	assert.Empty(t, store.Cart)
	assert.False(t, mr.Exists("cart_count:u1"))

	require.Len(t, rec.msgs, 1)
	assert.Equal(t, o.ID, string(rec.msgs[0].key))
	assert.Equal(t, shop.EventOrderPlaced, rec.msgs[0].env.EventType)
	p, err := kafkax.UnwrapPayload[shop.OrderPlacedPayload](rec.msgs[0].env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "20.00", p.Total)
	assert.Equal(t, "10.00", p.Items[0].Price)

	assert.Equal(t, "Pedido #"+o.ID[:8]+" criado com sucesso!", Placed(o))
	assert.Equal(t, "pedido-detalhes.html?id="+o.ID, DetailPath(o))
}

func TestPlaceOrderRejectsBeforeAnyWrite(t *testing.T) {
	svc, store, rec, _ := newService(t)
	ctx := context.Background()
	full := Summary{Lines: []shop.CartLine{{CartItem: shop.CartItem{ProductID: "p1", Quantity: 1}, Product: fone}}, Total: fone.Price}

	_, err := svc.PlaceOrder(ctx, ana, Summary{}, "pix")
	assert.ErrorIs(t, err, ErrEmptyCart)
	_, err = svc.PlaceOrder(ctx, ana, full, "")
	assert.ErrorIs(t, err, ErrNoPayment)
	_, err = svc.PlaceOrder(ctx, ana, full, "cheque")
	assert.ErrorIs(t, err, ErrNoPayment)
	_, err = svc.PlaceOrder(ctx, shop.User{}, full, "pix")
	assert.ErrorIs(t, err, ErrLoginRequired)

	assert.Empty(t, store.Calls)
	assert.Empty(t, rec.msgs)
}

func TestPlaceOrderStopsAtFailedStep(t *testing.T) {
	cases := []struct {
		fail     string
		step     string
		calls    int
		cartLeft bool
	}{
		{"CreateOrder", StepCreateOrder, 1, true},
		{"InsertOrderItems", StepOrderItems, 2, true},
		{"InsertPayment", StepPayment, 3, true},
		{"ClearCart", StepClearCart, 4, true},
	}
	for _, c := range cases {
		t.Run(c.step, func(t *testing.T) {
			svc, store, rec, _ := newService(t)
			ctx := context.Background()
			store.AddCartItem(ana.ID, fone.ID, 1)
			sum, err := svc.Load(ctx, ana)
			require.NoError(t, err)
			store.Calls = nil
			store.Fail[c.fail] = errors.New("backend down")

			_, err = svc.PlaceOrder(ctx, ana, sum, "boleto")

			var se *StepError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, c.step, se.Step)
			assert.True(t, strings.Contains(err.Error(), c.step))
			assert.Equal(t, MsgOrderFailed, shop.Message(err, ""))
			assert.Len(t, store.Calls, c.calls)
			assert.Equal(t, c.cartLeft, len(store.Cart) == 1)
			assert.Empty(t, rec.msgs)
			// earlier writes stay in place
			if c.calls > 1 {
				assert.Len(t, store.Orders, 1)
			}
		})
	}
}

func TestDetail(t *testing.T) {
	svc, store, _, _ := newService(t)
	ctx := context.Background()
	store.AddCartItem(ana.ID, fone.ID, 2)
	sum, err := svc.Load(ctx, ana)
	require.NoError(t, err)
	o, err := svc.PlaceOrder(ctx, ana, sum, "credit_card")
	require.NoError(t, err)

	d, err := svc.Detail(ctx, ana, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, d.Order.ID)
	require.Len(t, d.Lines, 1)
	assert.Equal(t, "Fone", d.Lines[0].Product.Name)
	require.NotNil(t, d.Payment)
	assert.Equal(t, shop.PaymentCreditCard, d.Payment.Method)

	_, err = svc.Detail(ctx, shop.User{ID: "u2"}, o.ID)
	assert.ErrorIs(t, err, shop.ErrNotFound)
	assert.Equal(t, MsgOrderNotFound, shop.Message(err, ""))

	_, err = svc.Detail(ctx, ana, "")
	assert.ErrorIs(t, err, shop.ErrNotFound)
}

func TestDetailWithoutPayment(t *testing.T) {
	svc, store, _, _ := newService(t)
	ctx := context.Background()
	o, err := store.CreateOrder(ctx, shop.Order{UserID: ana.ID, Total: decimal.NewFromInt(5), Status: shop.OrderPending})
	require.NoError(t, err)

	d, err := svc.Detail(ctx, ana, o.ID)

	require.NoError(t, err)
	assert.Nil(t, d.Payment)
	assert.Empty(t, d.Lines)
}
