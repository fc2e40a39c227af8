// Package checkout turns the customer's cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront/internal/cart"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

const (
	MsgLoadFailed      = "Erro ao carregar itens do carrinho."
	MsgOrderFailed     = "Erro ao finalizar pedido. Tente novamente."
	MsgDetailFailed    = "Erro ao carregar pedido."
	MsgOrderNotFound   = "Pedido não encontrado."
	MsgEmptyCart       = "Seu carrinho está vazio."
	MsgChoosePayment   = "Selecione uma forma de pagamento."
	MsgLoginToCheckout = "Por favor, faça login para finalizar a compra."
)

var (
	ErrEmptyCart     = shop.NewUserError(MsgEmptyCart)
	ErrNoPayment     = shop.NewUserError(MsgChoosePayment)
	ErrLoginRequired = shop.NewUserError(MsgLoginToCheckout)
)

// Order placement steps, in the order they run.
const (
	StepCreateOrder = "create order"
	StepOrderItems  = "insert order items"
	StepPayment     = "insert payment"
	StepClearCart   = "clear cart"
)

// StepError names the write that failed. Writes before it are not undone.
type StepError struct {
	Step    string
	OrderID string
	Err     error
}

func (e *StepError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("checkout %s (order %s): %v", e.Step, e.OrderID, e.Err)
	}
	return fmt.Sprintf("checkout %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Summary is the cart as the checkout page shows it. Total is what the
// order is created with.
type Summary struct {
	Lines    []shop.CartLine
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

func (s Summary) Empty() bool { return len(s.Lines) == 0 }

type Service struct {
	Store       shop.Store
	Counter     *cart.Counter
	Events      kafkax.Publisher
	ServiceName string
	Log         zerolog.Logger
}

func (s *Service) Load(ctx context.Context, user shop.User) (Summary, error) {
	lines, err := s.Store.ListCartLines(ctx, user.ID)
	if err != nil {
		s.Log.Error().Err(err).Str("user_id", user.ID).Msg("load checkout")
		return Summary{}, &shop.UserError{Message: MsgLoadFailed, Err: err}
	}
	sub := shop.Subtotal(lines)
	return Summary{Lines: lines, Subtotal: sub, Total: sub}, nil
}

// PlaceOrder writes the order, its items, the payment and clears the cart,
// one call each and in that order. It stops at the first failure.
func (s *Service) PlaceOrder(ctx context.Context, user shop.User, sum Summary, method string) (shop.Order, error) {
	if user.ID == "" {
		return shop.Order{}, ErrLoginRequired
	}
	if sum.Empty() {
		return shop.Order{}, ErrEmptyCart
	}
	pm, ok := shop.ParsePaymentMethod(method)
	if !ok {
		return shop.Order{}, ErrNoPayment
	}

	order, err := s.Store.CreateOrder(ctx, shop.Order{UserID: user.ID, Total: sum.Total, Status: shop.OrderPending})
	if err != nil {
		return shop.Order{}, s.failed(StepCreateOrder, "", err)
	}

	items := make([]shop.OrderItem, 0, len(sum.Lines))
	for _, l := range sum.Lines {
		items = append(items, shop.OrderItem{
			OrderID:   order.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Product.Price,
		})
	}
	if err := s.Store.InsertOrderItems(ctx, items); err != nil {
		return order, s.failed(StepOrderItems, order.ID, err)
	}
	if err := s.Store.InsertPayment(ctx, shop.Payment{OrderID: order.ID, Status: shop.PaymentPending, Method: pm}); err != nil {
		return order, s.failed(StepPayment, order.ID, err)
	}
	if err := s.Store.ClearCart(ctx, user.ID); err != nil {
		return order, s.failed(StepClearCart, order.ID, err)
	}
	s.Counter.Invalidate(ctx, user.ID)

	s.publish(ctx, order, pm, items)
	s.Log.Info().Str("order_id", order.ID).Str("user_id", user.ID).Str("total", order.Total.StringFixed(2)).Msg("order placed")
	return order, nil
}

func (s *Service) failed(step, orderID string, err error) error {
	se := &StepError{Step: step, OrderID: orderID, Err: err}
	s.Log.Error().Err(err).Str("step", step).Str("order_id", orderID).Msg("place order")
	return &shop.UserError{Message: MsgOrderFailed, Err: se}
}

func (s *Service) publish(ctx context.Context, o shop.Order, pm shop.PaymentMethod, items []shop.OrderItem) {
	if s.Events == nil {
		return
	}
	p := shop.OrderPlacedPayload{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Total:         o.Total.StringFixed(2),
		PaymentMethod: pm,
		Items:         make([]shop.OrderPlacedItem, 0, len(items)),
	}
	for _, it := range items {
		p.Items = append(p.Items, shop.OrderPlacedItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price.StringFixed(2)})
	}
	env := kafkax.NewEnvelope(shop.EventOrderPlaced, s.ServiceName, middleware.GetReqID(ctx), o.ID, p)
	kafkax.PublishEnvelope(s.Events, shop.OrderKey(o.ID), env)
}

// Placed is the banner shown after a successful order.
func Placed(o shop.Order) string {
	return fmt.Sprintf("Pedido #%s criado com sucesso!", o.ShortID())
}

// DetailPath is the page the customer lands on after placing o.
func DetailPath(o shop.Order) string {
	return "pedido-detalhes.html?id=" + url.QueryEscape(o.ID)
}

// Detail loads one of the user's orders. Orders of other users are not found.
func (s *Service) Detail(ctx context.Context, user shop.User, orderID string) (shop.OrderDetail, error) {
	if orderID == "" {
		return shop.OrderDetail{}, &shop.UserError{Message: MsgOrderNotFound, Err: shop.ErrNotFound}
	}
	o, err := s.Store.GetOrder(ctx, orderID)
	if err == nil && o.UserID != user.ID {
		err = fmt.Errorf("order %s of another user: %w", orderID, shop.ErrNotFound)
	}
	if err != nil {
		return shop.OrderDetail{}, s.detailFailed(err, orderID)
	}

	lines, err := s.Store.ListOrderLines(ctx, orderID)
	if err != nil {
		return shop.OrderDetail{}, s.detailFailed(err, orderID)
	}
	d := shop.OrderDetail{Order: o, Lines: lines}

	p, err := s.Store.GetPayment(ctx, orderID)
	switch {
	case err == nil:
		d.Payment = &p
	case !errors.Is(err, shop.ErrNotFound):
		return shop.OrderDetail{}, s.detailFailed(err, orderID)
	}
	return d, nil
}

func (s *Service) detailFailed(err error, orderID string) error {
	if errors.Is(err, shop.ErrNotFound) {
		return &shop.UserError{Message: MsgOrderNotFound, Err: err}
	}
	s.Log.Error().Err(err).Str("order_id", orderID).Msg("load order")
	return &shop.UserError{Message: MsgDetailFailed, Err: err}
}
