package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"github.com/jwalitptl/ward-assistant/internal/store"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

type Config struct {
	URI                    string
	Database               string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
	// OperationTimeout bounds every single gateway call.
	OperationTimeout time.Duration
}

type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	logger  *logger.Logger
}

var _ store.Gateway = (*Store)(nil)

// Connect opens the client once and verifies the primary is reachable.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
		SetSocketTimeout(cfg.SocketTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, apperrors.NewConnectivity("connect", err)
	}

	s := &Store{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: cfg.OperationTimeout,
		logger:  log,
	}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info("connected to document store", "database", cfg.Database)
	return s, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func sortDoc(sort *store.Sort) bson.D {
	dir := 1
	if sort.Descending {
		dir = -1
	}
	return bson.D{{Key: sort.Field, Value: dir}}
}

func (s *Store) FindOne(ctx context.Context, collection string, filter store.Filter, opts *store.FindOptions, out interface{}) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	findOpts := options.FindOne()
	if opts != nil {
		if opts.Sort != nil {
			findOpts.SetSort(sortDoc(opts.Sort))
		}
		if len(opts.Projection) > 0 {
			findOpts.SetProjection(opts.Projection)
		}
	}

	err := s.db.Collection(collection).FindOne(ctx, filter, findOpts).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, classify("find one "+collection, err)
	}
	return true, nil
}

func (s *Store) Find(ctx context.Context, collection string, filter store.Filter, opts *store.FindOptions, out interface{}) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	findOpts := options.Find()
	if opts != nil {
		if opts.Sort != nil {
			findOpts.SetSort(sortDoc(opts.Sort))
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
		if len(opts.Projection) > 0 {
			findOpts.SetProjection(opts.Projection)
		}
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filter, findOpts)
	if err != nil {
		return classify("find "+collection, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return classify("read "+collection, err)
	}
	return nil
}

func (s *Store) InsertOne(ctx context.Context, collection string, doc interface{}) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return classify("insert into "+collection, err)
	}
	return nil
}

func (s *Store) Aggregate(ctx context.Context, collection, groupBy string) ([]store.Group, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + groupBy},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, classify("aggregate "+collection, err)
	}

	var rows []struct {
		Key   interface{} `bson:"_id"`
		Count int64       `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, classify("read aggregate "+collection, err)
	}

	groups := make([]store.Group, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, store.Group{Key: r.Key, Count: r.Count})
	}
	return groups, nil
}

func (s *Store) CountDocuments(ctx context.Context, collection string, filter store.Filter) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if filter == nil {
		filter = store.Filter{}
	}
	n, err := s.db.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, classify("count "+collection, err)
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return classify("ping", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from document store: %w", err)
	}
	return nil
}

// classify separates "could not reach the server in time" from everything
// else, so callers can tell an outage from a missing record.
func classify(op string, err error) error {
	var selection topology.ServerSelectionError
	switch {
	case mongo.IsTimeout(err),
		mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.As(err, &selection):
		return apperrors.NewConnectivity(op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
