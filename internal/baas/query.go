package baas

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

const objectMediaType = "application/vnd.pgrst.object+json"

// Query is a table request being built, in the style of the backend's
// client libraries: From("cart_items").Select("*").Eq("user_id", id).
type Query struct {
	c      *Client
	table  string
	params url.Values
}

func (c *Client) From(table string) *Query {
	return &Query{c: c, table: table, params: url.Values{}}
}

func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

func (q *Query) req(ctx context.Context, method string, body any) request {
	return request{
		method: method,
		path:   "/rest/v1/" + q.table,
		query:  q.params,
		body:   body,
		token:  accessToken(ctx),
		header: http.Header{},
	}
}

// Execute runs a select and decodes the row array into out.
func (q *Query) Execute(ctx context.Context, out any) error {
	return q.c.do(ctx, q.req(ctx, http.MethodGet, nil), out)
}

// Single runs a select expecting exactly one row. Zero rows is reported as
// shop.ErrNotFound.
func (q *Query) Single(ctx context.Context, out any) error {
	r := q.req(ctx, http.MethodGet, nil)
	r.header.Set("Accept", objectMediaType)
	return noRows(q.c.do(ctx, r, out))
}

// Insert writes rows (a struct or a slice). When out is non-nil the stored
// representation is decoded into it.
func (q *Query) Insert(ctx context.Context, rows any, out any) error {
	r := q.req(ctx, http.MethodPost, rows)
	if out != nil {
		r.header.Set("Prefer", "return=representation")
	} else {
		r.header.Set("Prefer", "return=minimal")
	}
	return q.c.do(ctx, r, out)
}

// InsertSingle writes one row and decodes the stored row (insert().select().single()).
func (q *Query) InsertSingle(ctx context.Context, row any, out any) error {
	r := q.req(ctx, http.MethodPost, row)
	r.header.Set("Prefer", "return=representation")
	r.header.Set("Accept", objectMediaType)
	return noRows(q.c.do(ctx, r, out))
}

func (q *Query) Update(ctx context.Context, values any) error {
	r := q.req(ctx, http.MethodPatch, values)
	r.header.Set("Prefer", "return=minimal")
	return q.c.do(ctx, r, nil)
}

func (q *Query) Delete(ctx context.Context) error {
	return q.c.do(ctx, q.req(ctx, http.MethodDelete, nil), nil)
}

func noRows(err error) error {
	if IsNoRows(err) {
		return shop.ErrNotFound
	}
	return err
}
