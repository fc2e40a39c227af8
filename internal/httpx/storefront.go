package httpx

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ariefcatur/go-storefront/internal/auth"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

// Storefront serves the shop pages. Every page load runs the same steps:
// session check, fetch, render. Every form post runs a mutation and
// redirects so the next page load shows fresh state.
type Storefront struct {
	Auth     *auth.Service
	Catalog  *catalog.Service
	Cart     *cart.Service
	Checkout *checkout.Service
	Flashes  *Flashes
	// Limiter throttles login and sign-up posts per IP. Nil disables it.
	Limiter       *RateLimiter
	SessionTTL    time.Duration
	SecureCookies bool
	Log           zerolog.Logger

	views *renderer
}

func (s *Storefront) Register(r chi.Router) error {
	views, err := newRenderer()
	if err != nil {
		return err
	}
	s.views = views

	limited := func(h http.HandlerFunc) http.Handler {
		if s.Limiter == nil {
			return h
		}
		return s.Limiter.Limit(h)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) { s.redirect(w, r, auth.PageIndex) })
		r.Get("/"+auth.PageIndex, s.page(auth.PageIndex, nil))
		r.Get("/"+auth.PageLogin, s.page(auth.PageLogin, s.loginPage))
		r.Method(http.MethodPost, "/"+auth.PageLogin, limited(s.login))
		r.Get("/"+auth.PageRegister, s.page(auth.PageRegister, nil))
		r.Method(http.MethodPost, "/"+auth.PageRegister, limited(s.register))
		r.Post("/logout", s.logout)

		r.Get("/"+auth.PageHome, s.page(auth.PageHome, nil))
		r.Get("/"+auth.PageProfile, s.page(auth.PageProfile, nil))
		r.Post("/"+auth.PageProfile, s.updateProfile)

		r.Get("/"+auth.PageProducts, s.page(auth.PageProducts, s.productsPage))
		r.Post("/cart/add", s.addToCart)

		r.Get("/"+auth.PageCart, s.page(auth.PageCart, s.cartPage))
		r.Post("/cart/items/{id}/quantity", s.setQuantity)
		r.Post("/cart/items/{id}/remove", s.removeItem)

		r.Get("/"+auth.PageCheckout, s.page(auth.PageCheckout, s.checkoutPage))
		r.Post("/"+auth.PageCheckout, s.placeOrder)
		r.Get("/"+auth.PageOrder, s.page(auth.PageOrder, s.orderPage))

		r.Get("/api/cart/count", s.cartCount)
	})
	return nil
}

// page wraps a page loader with the session guard and the render. The guard
// runs before the loader so a redirected visitor triggers no fetch.
func (s *Storefront) page(name string, load func(r *http.Request, td *TemplateData)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, authenticated := auth.SessionFrom(r.Context())
		if target := auth.Guard(name, authenticated); target != "" {
			s.redirect(w, r, target)
			return
		}

		td := &TemplateData{IsAuthenticated: authenticated, User: sess.User()}
		if authenticated {
			td.CartCount = s.Cart.Count(r.Context(), td.User)
		}
		td.Flashes = s.popFlashes(r.Context())
		if load != nil {
			load(r, td)
		}
		s.views.render(w, r, name, td)
	}
}

func (s *Storefront) redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, "/"+target, http.StatusSeeOther)
}

func (s *Storefront) flash(ctx context.Context, kind, text string) {
	if err := s.Flashes.Add(ctx, visitorID(ctx), Flash{Kind: kind, Text: text}); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("queue flash")
	}
}

func (s *Storefront) flashErr(ctx context.Context, err error, fallback string) {
	s.flash(ctx, FlashError, shop.Message(err, fallback))
}

func (s *Storefront) popFlashes(ctx context.Context) []Flash {
	fl, err := s.Flashes.Pop(ctx, visitorID(ctx))
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("read flashes")
	}
	return fl
}

// --- auth ---

func (s *Storefront) loginPage(r *http.Request, td *TemplateData) {
	if r.URL.Query().Get("type") == "signup" {
		td.Flashes = append(td.Flashes, Flash{Kind: FlashSuccess, Text: auth.MsgEmailConfirmed})
	}
}

func (s *Storefront) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.Auth.Login(ctx, r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		s.flashErr(ctx, err, "Erro ao fazer login.")
		s.redirect(w, r, auth.PageLogin)
		return
	}
	s.setCookie(w, sessionCookie, sess.ID, s.SessionTTL)
	s.flash(ctx, FlashSuccess, auth.MsgLoggedIn)
	s.redirect(w, r, auth.PageHome)
}

func (s *Storefront) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, err := s.Auth.Register(ctx, r.PostFormValue("name"), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		s.flashErr(ctx, err, "Erro no cadastro.")
	} else {
		s.flash(ctx, FlashSuccess, auth.MsgRegistered)
	}
	s.redirect(w, r, auth.PageRegister)
}

func (s *Storefront) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if sess, ok := auth.SessionFrom(ctx); ok {
		if err := s.Auth.Logout(ctx, sess); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("logout")
		}
	}
	s.clearCookie(w, sessionCookie)
	s.redirect(w, r, auth.PageIndex)
}

func (s *Storefront) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := auth.SessionFrom(ctx)
	if !ok {
		s.redirect(w, r, auth.PageIndex)
		return
	}
	if _, err := s.Auth.UpdateProfile(ctx, sess, r.PostFormValue("name")); err != nil {
		s.flashErr(ctx, err, "Erro ao atualizar perfil.")
	} else {
		s.flash(ctx, FlashSuccess, auth.MsgProfileUpdated)
	}
	s.redirect(w, r, auth.PageProfile)
}

// --- catalog ---

func (s *Storefront) productsPage(r *http.Request, td *TemplateData) {
	q := r.URL.Query()
	l, err := s.Catalog.Load(r.Context(), q.Get("category"), q.Get("sort"))
	if err != nil {
		td.Flashes = append(td.Flashes, Flash{Kind: FlashError, Text: shop.Message(err, catalog.MsgLoadFailed)})
		l = catalog.NewListing(nil, q.Get("category"), q.Get("sort"))
	}
	td.Listing = l
}

func (s *Storefront) addToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := auth.UserFrom(ctx)
	if !ok {
		s.flash(ctx, FlashError, catalog.MsgLoginToAdd)
		s.redirect(w, r, auth.PageLogin)
		return
	}

	back := auth.PageProducts
	q := url.Values{}
	for _, k := range []string{"category", "sort"} {
		if v := r.PostFormValue(k); v != "" {
			q.Set(k, v)
		}
	}
	if len(q) > 0 {
		back += "?" + q.Encode()
	}

	products, err := s.Catalog.Products(ctx)
	if err != nil {
		s.flashErr(ctx, err, catalog.MsgAddFailed)
		s.redirect(w, r, back)
		return
	}
	msg, err := s.Catalog.AddToCart(ctx, user, r.PostFormValue("product_id"), products)
	if err != nil {
		s.flashErr(ctx, err, catalog.MsgAddFailed)
	} else {
		s.flash(ctx, FlashSuccess, msg)
	}
	s.redirect(w, r, back)
}

// --- cart ---

func (s *Storefront) cartPage(r *http.Request, td *TemplateData) {
	v, err := s.Cart.Load(r.Context(), td.User)
	if err != nil {
		td.Flashes = append(td.Flashes, Flash{Kind: FlashError, Text: shop.Message(err, cart.MsgLoadFailed)})
	}
	td.Cart = v
}

func (s *Storefront) setQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := auth.UserFrom(ctx)
	if !ok {
		s.redirect(w, r, auth.PageLogin)
		return
	}
	qty, err := strconv.Atoi(r.PostFormValue("quantity"))
	if err == nil {
		err = s.Cart.SetQuantity(ctx, user, chi.URLParam(r, "id"), qty)
	}
	if err != nil {
		s.flashErr(ctx, err, cart.MsgUpdateFailed)
	}
	s.redirect(w, r, auth.PageCart)
}

func (s *Storefront) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := auth.UserFrom(ctx)
	if !ok {
		s.redirect(w, r, auth.PageLogin)
		return
	}
	if err := s.Cart.Remove(ctx, user, chi.URLParam(r, "id")); err != nil {
		s.flashErr(ctx, err, cart.MsgRemoveFailed)
	}
	s.redirect(w, r, auth.PageCart)
}

func (s *Storefront) cartCount(w http.ResponseWriter, r *http.Request) {
	n := 0
	if user, ok := auth.UserFrom(r.Context()); ok {
		n = s.Cart.Count(r.Context(), user)
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// --- checkout ---

func (s *Storefront) checkoutPage(r *http.Request, td *TemplateData) {
	sum, err := s.Checkout.Load(r.Context(), td.User)
	if err != nil {
		td.Flashes = append(td.Flashes, Flash{Kind: FlashError, Text: shop.Message(err, checkout.MsgLoadFailed)})
	}
	td.Summary = sum
	td.PaymentMethods = shop.PaymentMethods
}

func (s *Storefront) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := auth.UserFrom(ctx)
	if !ok {
		s.flash(ctx, FlashError, checkout.MsgLoginToCheckout)
		s.redirect(w, r, auth.PageLogin)
		return
	}
	// The server keeps no cart between requests, so the summary is read back
	// here; PlaceOrder still rejects an empty one before writing anything.
	sum, err := s.Checkout.Load(ctx, user)
	if err != nil {
		s.flashErr(ctx, err, checkout.MsgLoadFailed)
		s.redirect(w, r, auth.PageCheckout)
		return
	}
	order, err := s.Checkout.PlaceOrder(ctx, user, sum, r.PostFormValue("payment"))
	if err != nil {
		s.flashErr(ctx, err, checkout.MsgOrderFailed)
		s.redirect(w, r, auth.PageCheckout)
		return
	}
	s.flash(ctx, FlashSuccess, checkout.Placed(order))
	s.redirect(w, r, checkout.DetailPath(order))
}

func (s *Storefront) orderPage(r *http.Request, td *TemplateData) {
	d, err := s.Checkout.Detail(r.Context(), td.User, r.URL.Query().Get("id"))
	if err != nil {
		td.Flashes = append(td.Flashes, Flash{Kind: FlashError, Text: shop.Message(err, checkout.MsgDetailFailed)})
		return
	}
	td.Order = &d
}
