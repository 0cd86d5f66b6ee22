// Package memory is an in-process document store with the query subset the
// workflows use. It backs the tests and the --memory demo mode.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jwalitptl/ward-assistant/internal/store"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string][]bson.M
	inserts     int
	failure     error
}

var _ store.Gateway = (*Store)(nil)

func New() *Store {
	return &Store{collections: make(map[string][]bson.M)}
}

// Seed appends documents to a collection without counting them as writes.
func (s *Store) Seed(collection string, docs ...interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		doc, err := toDocument(d)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", collection, err)
		}
		s.collections[collection] = append(s.collections[collection], doc)
	}
	return nil
}

// Inserts counts InsertOne calls that reached the store.
func (s *Store) Inserts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inserts
}

// Documents returns a copy of a collection's documents in insertion order.
func (s *Store) Documents(collection string) []bson.M {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bson.M, 0, len(s.collections[collection]))
	for _, d := range s.collections[collection] {
		out = append(out, copyDocument(d))
	}
	return out
}

// FailWith makes every following call fail as if the server were
// unreachable. Passing nil restores normal operation.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *Store) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewConnectivity(op, err)
	}
	if s.failure != nil {
		return apperrors.NewConnectivity(op, s.failure)
	}
	return nil
}

func (s *Store) FindOne(ctx context.Context, collection string, filter store.Filter, opts *store.FindOptions, out interface{}) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "find one "+collection); err != nil {
		return false, err
	}

	docs, err := s.query(collection, filter, opts.WithLimit(1))
	if err != nil {
		return false, err
	}
	if len(docs) == 0 {
		return false, nil
	}
	if err := decode(docs[0], out); err != nil {
		return false, fmt.Errorf("failed to decode %s document: %w", collection, err)
	}
	return true, nil
}

func (s *Store) Find(ctx context.Context, collection string, filter store.Filter, opts *store.FindOptions, out interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "find "+collection); err != nil {
		return err
	}

	docs, err := s.query(collection, filter, opts)
	if err != nil {
		return err
	}

	slice := reflect.ValueOf(out)
	if slice.Kind() != reflect.Ptr || slice.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("find %s: out must be a pointer to a slice", collection)
	}
	elemType := slice.Elem().Type().Elem()
	result := reflect.MakeSlice(slice.Elem().Type(), 0, len(docs))
	for _, d := range docs {
		elem := reflect.New(elemType)
		if err := decode(d, elem.Interface()); err != nil {
			return fmt.Errorf("failed to decode %s document: %w", collection, err)
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Elem().Set(result)
	return nil
}

func (s *Store) InsertOne(ctx context.Context, collection string, doc interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "insert "+collection); err != nil {
		return err
	}

	d, err := toDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	s.collections[collection] = append(s.collections[collection], d)
	s.inserts++
	return nil
}

func (s *Store) Aggregate(ctx context.Context, collection, groupBy string) ([]store.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "aggregate "+collection); err != nil {
		return nil, err
	}

	var groups []store.Group
	index := make(map[interface{}]int)
	for _, d := range s.collections[collection] {
		key := groupKey(d[groupBy])
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, store.Group{Key: key})
		}
		groups[i].Count++
	}
	return groups, nil
}

func (s *Store) CountDocuments(ctx context.Context, collection string, filter store.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "count "+collection); err != nil {
		return 0, err
	}

	docs, err := s.query(collection, filter, nil)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check(ctx, "ping")
}

func (s *Store) Close(context.Context) error {
	return nil
}

func (s *Store) query(collection string, filter store.Filter, opts *store.FindOptions) ([]bson.M, error) {
	var out []bson.M
	for _, d := range s.collections[collection] {
		ok, err := matches(d, filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter on %s: %w", collection, err)
		}
		if ok {
			out = append(out, d)
		}
	}
	if opts == nil {
		return out, nil
	}

	if opts.Sort != nil {
		field, desc := opts.Sort.Field, opts.Sort.Descending
		sort.SliceStable(out, func(i, j int) bool {
			c := compareValues(out[i][field], out[j][field])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	if opts.Limit > 0 && int64(len(out)) > opts.Limit {
		out = out[:opts.Limit]
	}
	if len(opts.Projection) > 0 {
		projected := make([]bson.M, len(out))
		for i, d := range out {
			projected[i] = project(d, opts.Projection)
		}
		out = projected
	}
	return out, nil
}

func matches(doc bson.M, filter store.Filter) (bool, error) {
	for field, cond := range filter {
		value, present := doc[field]
		ops, isOps := operators(cond)
		if !isOps {
			if !equalValue(value, present, cond) {
				return false, nil
			}
			continue
		}
		ok, err := matchOperators(value, present, ops)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func operators(cond interface{}) (map[string]interface{}, bool) {
	var m map[string]interface{}
	switch c := cond.(type) {
	case bson.M:
		m = c
	case map[string]interface{}:
		m = c
	default:
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, len(m) > 0
}

func matchOperators(value interface{}, present bool, ops map[string]interface{}) (bool, error) {
	for op, arg := range ops {
		switch op {
		case "$regex":
			pattern, ok := arg.(string)
			if !ok {
				return false, fmt.Errorf("$regex expects a string")
			}
			if opt, _ := ops["$options"].(string); strings.Contains(opt, "i") {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return false, err
			}
			str, ok := value.(string)
			if !ok || !re.MatchString(str) {
				return false, nil
			}
		case "$options":
		case "$exists":
			want, _ := arg.(bool)
			if present != want {
				return false, nil
			}
		case "$ne":
			if equalValue(value, present, arg) {
				return false, nil
			}
		case "$in":
			items := reflect.ValueOf(arg)
			if items.Kind() != reflect.Slice {
				return false, fmt.Errorf("$in expects an array")
			}
			found := false
			for i := 0; i < items.Len(); i++ {
				if equalValue(value, present, items.Index(i).Interface()) {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		case "$gt", "$gte", "$lt", "$lte":
			if !present || value == nil {
				return false, nil
			}
			c, ok := compare(value, arg)
			if !ok {
				return false, nil
			}
			if (op == "$gt" && c <= 0) || (op == "$gte" && c < 0) ||
				(op == "$lt" && c >= 0) || (op == "$lte" && c > 0) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported operator %s", op)
		}
	}
	return true, nil
}

// equalValue follows MongoDB: a nil condition matches a missing or null
// field.
func equalValue(value interface{}, present bool, cond interface{}) bool {
	if cond == nil {
		return !present || value == nil
	}
	if !present || value == nil {
		return false
	}
	if c, ok := compare(value, cond); ok {
		return c == 0
	}
	return reflect.DeepEqual(normalize(value), normalize(cond))
}

func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC()
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

// compare orders two values of the same kind: numbers, strings or times.
func compare(a, b interface{}) (int, bool) {
	switch x := normalize(a).(type) {
	case float64:
		y, ok := normalize(b).(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, ok := normalize(b).(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case x.Before(y):
			return -1, true
		case x.After(y):
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// compareValues is the sort order: missing and null first, then values of
// the same kind in natural order.
func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	c, _ := compare(a, b)
	return c
}

func groupKey(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	if !reflect.TypeOf(v).Comparable() {
		return fmt.Sprint(v)
	}
	return v
}

func project(doc bson.M, projection bson.M) bson.M {
	include := false
	for _, v := range projection {
		if truthy(v) {
			include = true
			break
		}
	}
	out := bson.M{}
	if include {
		for k, v := range projection {
			if val, ok := doc[k]; ok && truthy(v) {
				out[k] = val
			}
		}
		return out
	}
	for k, v := range doc {
		if _, excluded := projection[k]; !excluded {
			out[k] = v
		}
	}
	return out
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	}
	return false
}

func toDocument(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decode(doc bson.M, out interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func copyDocument(d bson.M) bson.M {
	out := make(bson.M, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
