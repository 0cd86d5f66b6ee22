package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Filter is a document query in MongoDB query syntax. Both backends accept
// equality, $regex/$options, $exists, $in and the $gt/$gte/$lt/$lte
// comparisons.
type Filter = bson.M

// Sort orders results on a single field.
type Sort struct {
	Field string
	// Descending flips the default ascending order.
	Descending bool
}

type FindOptions struct {
	Sort       *Sort
	Limit      int64
	Projection bson.M
}

// Group is one bucket of a group-by-count aggregation. Key is nil when the
// grouped field was missing or null.
type Group struct {
	Key   interface{}
	Count int64
}

// Gateway is the document store the workflows run against. It offers no
// transactions and no uniqueness constraints.
type Gateway interface {
	// FindOne decodes the first matching document into out and reports
	// whether one was found.
	FindOne(ctx context.Context, collection string, filter Filter, opts *FindOptions, out interface{}) (bool, error)
	// Find decodes every matching document into out, a pointer to a slice.
	Find(ctx context.Context, collection string, filter Filter, opts *FindOptions, out interface{}) error
	InsertOne(ctx context.Context, collection string, doc interface{}) error
	Aggregate(ctx context.Context, collection, groupBy string) ([]Group, error)
	CountDocuments(ctx context.Context, collection string, filter Filter) (int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Descending is shorthand for a descending sort on field.
func Descending(field string) *FindOptions {
	return &FindOptions{Sort: &Sort{Field: field, Descending: true}}
}

// Ascending is shorthand for an ascending sort on field.
func Ascending(field string) *FindOptions {
	return &FindOptions{Sort: &Sort{Field: field}}
}

// WithLimit returns a copy of opts capped at n documents.
func (o *FindOptions) WithLimit(n int64) *FindOptions {
	out := FindOptions{}
	if o != nil {
		out = *o
	}
	out.Limit = n
	return &out
}
