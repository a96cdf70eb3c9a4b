// README: Document store abstraction shared by every persistence backend.
package docstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("document not found")

// Op is a query predicate operator.
type Op string

const (
	OpEqual         Op = "=="
	OpArrayContains Op = "array-contains"
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

type Query struct {
	Filters []Filter
	Limit   int
}

// Where is shorthand for a single-filter query.
func Where(field string, op Op, value any) Query {
	return Query{Filters: []Filter{{Field: field, Op: op, Value: value}}}
}

// WithLimit returns a copy of q capped at n results.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// Document is a stored record. Data holds plain Go values: string, bool,
// numbers, nil, []any and map[string]any.
type Document struct {
	ID   string
	Data map[string]any
}

// Store is the persistence surface used by the trip and user modules.
// Update merges top-level fields; array fields are replaced wholesale.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Query(ctx context.Context, collection string, q Query) ([]*Document, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
}
