package httpx

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

//go:embed templates
var templateFS embed.FS

type TemplateData struct {
	Page            string
	IsAuthenticated bool
	User            shop.User
	CartCount       int
	Flashes         []Flash
	CurrentYear     int

	Listing        catalog.Listing
	Cart           cart.View
	Summary        checkout.Summary
	PaymentMethods []shop.PaymentMethod
	Order          *shop.OrderDetail
}

var templateFuncs = template.FuncMap{
	"brl": shop.FormatBRL,
	"add": func(a, b int) int { return a + b },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02/01/2006 15:04")
	},
}

// newTemplateCache parses every page on top of the base layout and the
// partials. Pages are keyed by the path they are served at.
func newTemplateCache() (map[string]*template.Template, error) {
	cache := make(map[string]*template.Template)

	pages, err := fs.Glob(templateFS, "templates/*.page.tmpl")
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		ts, err := template.New("base").Funcs(templateFuncs).ParseFS(templateFS,
			"templates/base.layout.tmpl", "templates/*.partial.tmpl", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		name := strings.TrimSuffix(path.Base(page), ".page.tmpl") + ".html"
		cache[name] = ts
	}
	return cache, nil
}

type renderer struct {
	cache map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	c, err := newTemplateCache()
	if err != nil {
		return nil, err
	}
	return &renderer{cache: c}, nil
}

func (rd *renderer) render(w http.ResponseWriter, r *http.Request, page string, td *TemplateData) {
	ts, ok := rd.cache[page]
	if !ok {
		serverError(w, r, fmt.Errorf("the template %s does not exist", page))
		return
	}
	td.Page = page
	td.CurrentYear = time.Now().Year()

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", td); err != nil {
		serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func serverError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("server error")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
