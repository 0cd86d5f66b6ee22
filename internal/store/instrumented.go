package store

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/ward-assistant/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
	"github.com/jwalitptl/ward-assistant/pkg/metrics"
)

// Instrumented records per-call metrics and fails fast through a circuit
// breaker once the backend keeps timing out.
type Instrumented struct {
	next    Gateway
	metrics *metrics.Metrics
	cb      *circuitbreaker.CircuitBreaker
}

var _ Gateway = (*Instrumented)(nil)

// NewBreaker builds the store breaker; only connectivity failures count.
func NewBreaker(maxFailures int, openTimeout time.Duration) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "document-store",
		MaxFailures: maxFailures,
		Timeout:     openTimeout,
		IsFailure:   apperrors.IsRetryable,
	})
}

func Instrument(next Gateway, m *metrics.Metrics, cb *circuitbreaker.CircuitBreaker) *Instrumented {
	return &Instrumented{next: next, metrics: m, cb: cb}
}

func (g *Instrumented) observe(collection, operation string, fn func() error) error {
	start := time.Now()
	var result error
	if g.cb != nil {
		result = g.cb.Execute(fn)
		if errors.Is(result, circuitbreaker.ErrOpen) {
			result = apperrors.NewConnectivity(operation+" "+collection, result)
		}
	} else {
		result = fn()
	}

	if g.metrics != nil {
		status := "ok"
		if result != nil {
			status = apperrors.CodeOf(result).String()
		}
		g.metrics.StoreOperations.WithLabelValues(collection, operation, status).Inc()
		g.metrics.StoreLatency.WithLabelValues(collection, operation).Observe(time.Since(start).Seconds())
	}
	return result
}

func (g *Instrumented) FindOne(ctx context.Context, collection string, filter Filter, opts *FindOptions, out interface{}) (bool, error) {
	var found bool
	err := g.observe(collection, "find_one", func() error {
		var err error
		found, err = g.next.FindOne(ctx, collection, filter, opts, out)
		return err
	})
	return found, err
}

func (g *Instrumented) Find(ctx context.Context, collection string, filter Filter, opts *FindOptions, out interface{}) error {
	return g.observe(collection, "find", func() error {
		return g.next.Find(ctx, collection, filter, opts, out)
	})
}

func (g *Instrumented) InsertOne(ctx context.Context, collection string, doc interface{}) error {
	return g.observe(collection, "insert", func() error {
		return g.next.InsertOne(ctx, collection, doc)
	})
}

func (g *Instrumented) Aggregate(ctx context.Context, collection, groupBy string) ([]Group, error) {
	var groups []Group
	err := g.observe(collection, "aggregate", func() error {
		var err error
		groups, err = g.next.Aggregate(ctx, collection, groupBy)
		return err
	})
	return groups, err
}

func (g *Instrumented) CountDocuments(ctx context.Context, collection string, filter Filter) (int64, error) {
	var n int64
	err := g.observe(collection, "count", func() error {
		var err error
		n, err = g.next.CountDocuments(ctx, collection, filter)
		return err
	})
	return n, err
}

func (g *Instrumented) Ping(ctx context.Context) error {
	return g.observe("", "ping", func() error {
		return g.next.Ping(ctx)
	})
}

func (g *Instrumented) Close(ctx context.Context) error {
	return g.next.Close(ctx)
}
