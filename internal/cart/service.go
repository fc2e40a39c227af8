// Package cart shows and edits the signed-in customer's cart.
package cart

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

const (
	MsgLoadFailed   = "Erro ao carregar carrinho."
	MsgUpdateFailed = "Erro ao atualizar quantidade."
	MsgRemoveFailed = "Erro ao remover item do carrinho."
)

// View is what the cart page renders. Total equals Subtotal: there is no
// tax, shipping or discount.
type View struct {
	Lines    []shop.CartLine
	Subtotal decimal.Decimal
	Total    decimal.Decimal
	Count    int
}

func (v View) Empty() bool { return len(v.Lines) == 0 }

func NewView(lines []shop.CartLine) View {
	sub := shop.Subtotal(lines)
	return View{Lines: lines, Subtotal: sub, Total: sub, Count: shop.ItemCount(lines)}
}

type Service struct {
	Store   shop.Store
	Counter *Counter
	Log     zerolog.Logger
}

// Load returns the cart, newest rows first.
func (s *Service) Load(ctx context.Context, user shop.User) (View, error) {
	lines, err := s.Store.ListCartLines(ctx, user.ID)
	if err != nil {
		s.Log.Error().Err(err).Str("user_id", user.ID).Msg("load cart")
		return View{}, &shop.UserError{Message: MsgLoadFailed, Err: err}
	}
	return NewView(lines), nil
}

// SetQuantity sets the quantity of one of the user's rows. Below 1 the row
// is removed.
func (s *Service) SetQuantity(ctx context.Context, user shop.User, itemID string, quantity int) error {
	if quantity < 1 {
		return s.Remove(ctx, user, itemID)
	}
	line, err := s.line(ctx, user, itemID)
	if err != nil {
		return &shop.UserError{Message: MsgUpdateFailed, Err: err}
	}
	if quantity > line.Product.Stock {
		return shop.ErrStockLimit
	}
	if err := s.Store.UpdateCartItemQuantity(ctx, itemID, quantity); err != nil {
		s.Log.Error().Err(err).Str("item_id", itemID).Msg("update cart item")
		return &shop.UserError{Message: MsgUpdateFailed, Err: err}
	}
	s.Counter.Invalidate(ctx, user.ID)
	return nil
}

func (s *Service) Remove(ctx context.Context, user shop.User, itemID string) error {
	if _, err := s.line(ctx, user, itemID); err != nil {
		return &shop.UserError{Message: MsgRemoveFailed, Err: err}
	}
	if err := s.Store.DeleteCartItem(ctx, itemID); err != nil {
		s.Log.Error().Err(err).Str("item_id", itemID).Msg("delete cart item")
		return &shop.UserError{Message: MsgRemoveFailed, Err: err}
	}
	s.Counter.Invalidate(ctx, user.ID)
	return nil
}

// line finds itemID among the user's own rows; anyone else's row is not found.
func (s *Service) line(ctx context.Context, user shop.User, itemID string) (shop.CartLine, error) {
	lines, err := s.Store.ListCartLines(ctx, user.ID)
	if err != nil {
		return shop.CartLine{}, err
	}
	for _, l := range lines {
		if l.ID == itemID {
			return l, nil
		}
	}
	return shop.CartLine{}, fmt.Errorf("cart item %s: %w", itemID, shop.ErrNotFound)
}

func (s *Service) Count(ctx context.Context, user shop.User) int {
	return s.Counter.Count(ctx, user.ID)
}
