package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Query is a PostgREST request under construction. Build it with From and
// finish it with Execute. A Query is not safe for concurrent use.
type Query struct {
	client *Client
	table  string
	method string
	params url.Values
	prefer []string
	body   interface{}
	single bool
	err    error
}

// From starts a query against table.
func (c *Client) From(table string) *Query {
	q := &Query{client: c, table: table, method: http.MethodGet, params: url.Values{}}
	if table == "" {
		q.err = errors.New("postgrest: table name is required")
	}
	return q
}

// Select sets the returned columns ("*" for all).
func (q *Query) Select(columns string) *Query {
	if columns == "" {
		columns = "*"
	}
	q.params.Set("select", columns)
	return q
}

// Insert creates rows from v (a struct or a slice) and returns them.
func (q *Query) Insert(v interface{}) *Query {
	q.method = http.MethodPost
	q.body = v
	q.prefer = append(q.prefer, "return=representation")
	return q
}

// Upsert inserts v, merging into the existing row when the onConflict
// columns (comma separated) collide.
func (q *Query) Upsert(v interface{}, onConflict string) *Query {
	q.method = http.MethodPost
	q.body = v
	if onConflict != "" {
		q.params.Set("on_conflict", onConflict)
	}
	q.prefer = append(q.prefer, "resolution=merge-duplicates", "return=representation")
	return q
}

// Update patches the matching rows with the non-empty fields of v.
func (q *Query) Update(v interface{}) *Query {
	q.method = http.MethodPatch
	q.body = v
	q.prefer = append(q.prefer, "return=representation")
	return q
}

// Delete removes the matching rows.
func (q *Query) Delete() *Query {
	q.method = http.MethodDelete
	q.prefer = append(q.prefer, "return=minimal")
	return q
}

// Eq filters on column = value.
func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

// Order sorts by column. Calls accumulate in priority order.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	clause := column + "." + dir
	if existing := q.params.Get("order"); existing != "" {
		clause = existing + "," + clause
	}
	q.params.Set("order", clause)
	return q
}

// Single expects exactly one row and decodes it as an object instead of an
// array. Zero rows is an APIError with code PGRST116.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

// Execute runs the query and decodes the response into out, which may be nil.
func (q *Query) Execute(ctx context.Context, out interface{}) error {
	if q.err != nil {
		return q.err
	}
	c := q.client

	req, err := c.newRequest(ctx, q.method, restPath+"/"+q.table, q.params, q.body, c.accessToken(ctx))
	if err != nil {
		return err
	}
	if len(q.prefer) > 0 {
		req.Header.Set("Prefer", strings.Join(q.prefer, ","))
	}
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	return c.do(req, out)
}
