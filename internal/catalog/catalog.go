// Package catalog lists products and puts them in the customer's cart.
package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

const (
	SortName      = "name"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"

	AllCategories = "all"

	MsgAdded      = "Produto adicionado ao carrinho!"
	MsgUpdated    = "Quantidade atualizada no carrinho!"
	MsgLoadFailed = "Erro ao carregar produtos. Tente novamente."
	MsgAddFailed  = "Erro ao adicionar produto ao carrinho."
	MsgLoginToAdd = "Por favor, faça login para adicionar produtos ao carrinho."
)

var (
	ErrUnknownProduct = shop.NewUserError("Produto não encontrado.")
	ErrOutOfStock     = shop.NewUserError("Produto sem estoque.")
	ErrLoginRequired  = shop.NewUserError(MsgLoginToAdd)
)

// Listing is one render of the products page: the full list as loaded and
// the part of it the current filter shows.
type Listing struct {
	Products   []shop.Product
	Visible    []shop.Product
	Categories []string
	Category   string
	Sort       string
}

type Service struct {
	Store shop.Store
	// Redis caches the product list for TTL. Nil disables the cache.
	Redis   *redis.Client
	TTL     time.Duration
	Counter *cart.Counter
	Log     zerolog.Logger
}

// Products returns every product ordered by name.
func (s *Service) Products(ctx context.Context) ([]shop.Product, error) {
	var ps []shop.Product
	if s.Redis != nil {
		found, err := redisx.GetJSON(ctx, s.Redis, redisx.KeyCatalog, &ps)
		if err != nil {
			s.Log.Warn().Err(err).Msg("catalog cache read")
		} else if found {
			return ps, nil
		}
	}

	ps, err := s.Store.ListProducts(ctx)
	if err != nil {
		s.Log.Error().Err(err).Msg("load products")
		return nil, &shop.UserError{Message: MsgLoadFailed, Err: err}
	}
	if s.Redis != nil {
		if err := redisx.SetJSON(ctx, s.Redis, redisx.KeyCatalog, ps, s.TTL); err != nil {
			s.Log.Warn().Err(err).Msg("catalog cache write")
		}
	}
	return ps, nil
}

// Load fetches the products once and applies the filter to them.
func (s *Service) Load(ctx context.Context, category, sortBy string) (Listing, error) {
	ps, err := s.Products(ctx)
	if err != nil {
		return Listing{}, err
	}
	return NewListing(ps, category, sortBy), nil
}

func NewListing(products []shop.Product, category, sortBy string) Listing {
	if category == "" {
		category = AllCategories
	}
	if sortBy != SortPriceAsc && sortBy != SortPriceDesc {
		sortBy = SortName
	}
	return Listing{
		Products:   products,
		Visible:    Filter(products, category, sortBy),
		Categories: Categories(products),
		Category:   category,
		Sort:       sortBy,
	}
}

// Filter returns a sorted copy of the products in category ("all" or empty
// keeps every product). Unknown sort keys sort by name.
func Filter(products []shop.Product, category, sortBy string) []shop.Product {
	out := make([]shop.Product, 0, len(products))
	for _, p := range products {
		if category == "" || category == AllCategories || p.Category == category {
			out = append(out, p)
		}
	}
	switch sortBy {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b shop.Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b shop.Product) int { return b.Price.Cmp(a.Price) })
	default:
		slices.SortStableFunc(out, func(a, b shop.Product) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	}
	return out
}

// Categories lists the distinct non-empty categories in first-seen order.
func Categories(products []shop.Product) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}

// AddToCart adds one unit of productID to the user's cart and returns the
// banner to show. products is the list the customer was looking at.
//
// The lookup and the insert are separate calls, so two concurrent first adds
// can both insert. Once a user has two rows for a product the lookup reports
// not found and every later add inserts again.
func (s *Service) AddToCart(ctx context.Context, user shop.User, productID string, products []shop.Product) (string, error) {
	if user.ID == "" {
		return "", ErrLoginRequired
	}
	i := slices.IndexFunc(products, func(p shop.Product) bool { return p.ID == productID })
	if i < 0 {
		return "", ErrUnknownProduct
	}
	product := products[i]
	if !product.InStock() {
		return "", ErrOutOfStock
	}

	existing, err := s.Store.FindCartItem(ctx, user.ID, productID)
	switch {
	case errors.Is(err, shop.ErrNotFound):
		if err := s.Store.InsertCartItem(ctx, shop.CartItem{UserID: user.ID, ProductID: productID, Quantity: 1}); err != nil {
			return "", s.addFailed(err, user, productID)
		}
		s.Counter.Invalidate(ctx, user.ID)
		return MsgAdded, nil
	case err != nil:
		return "", s.addFailed(err, user, productID)
	}

	qty := existing.Quantity + 1
	if qty > product.Stock {
		return "", shop.ErrStockLimit
	}
	if err := s.Store.UpdateCartItemQuantity(ctx, existing.ID, qty); err != nil {
		return "", s.addFailed(err, user, productID)
	}
	s.Counter.Invalidate(ctx, user.ID)
	return MsgUpdated, nil
}

func (s *Service) addFailed(err error, user shop.User, productID string) error {
	s.Log.Error().Err(err).Str("user_id", user.ID).Str("product_id", productID).Msg("add to cart")
	return &shop.UserError{Message: MsgAddFailed, Err: err}
}
