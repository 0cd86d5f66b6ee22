// Package idgen hands out sequential, human-readable identifiers such as
// PR_007 for stores that have no auto-increment.
package idgen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/store"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
	"github.com/jwalitptl/ward-assistant/pkg/metrics"
)

// Kind describes one identifier sequence.
type Kind struct {
	Name       string
	Collection string
	Field      string
	Prefix     string
}

var (
	Prescription    = Kind{Name: "prescription", Collection: model.CollectionPrescriptions, Field: "prescription_id", Prefix: "PR_"}
	Note            = Kind{Name: "note", Collection: model.CollectionNoteEvents, Field: "note_id", Prefix: "NOTE_"}
	MedicationEvent = Kind{Name: "medication_event", Collection: model.CollectionMedicationEvents, Field: "event_id", Prefix: "MME_"}
	TestApplication = Kind{Name: "test_application", Collection: model.CollectionApplications, Field: "application_id", Prefix: "APP_"}
)

// StaffKind returns the sequence for a staff role.
func StaffKind(role model.Role) Kind {
	info := role.Info()
	return Kind{Name: string(role), Collection: info.Collection, Field: info.IDField, Prefix: info.Prefix}
}

// MaxSequence is the last number a three-digit identifier can carry. The
// store orders identifiers as strings, so a fourth digit would sort below
// the current maximum and be handed out again.
const MaxSequence = 999

// ErrSequenceExhausted is returned once a kind has used MaxSequence.
var ErrSequenceExhausted = errors.New("identifier sequence exhausted")

// Format renders a sequence number with at least three digits.
func Format(prefix string, n int) string {
	return fmt.Sprintf("%s%03d", prefix, n)
}

// Allocator derives the next identifier from the current maximum. Calls
// for the same kind are serialized; different kinds run independently.
type Allocator struct {
	gw      store.Gateway
	metrics *metrics.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAllocator(gw store.Gateway, m *metrics.Metrics) *Allocator {
	return &Allocator{
		gw:      gw,
		metrics: m,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (a *Allocator) lock(kind Kind) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[kind.Name]
	if !ok {
		l = &sync.Mutex{}
		a.locks[kind.Name] = l
	}
	return l
}

// Allocate returns the identifier after the current maximum. Nothing is
// reserved: a caller that never writes leaves the identifier to the next
// caller.
func (a *Allocator) Allocate(ctx context.Context, kind Kind) (string, error) {
	l := a.lock(kind)
	l.Lock()
	defer l.Unlock()
	return a.next(ctx, kind)
}

// Next allocates and runs write while still holding the kind's lock, so
// no other caller in this process can observe the same maximum before the
// record is stored.
func (a *Allocator) Next(ctx context.Context, kind Kind, write func(ctx context.Context, id string) error) (string, error) {
	l := a.lock(kind)
	l.Lock()
	defer l.Unlock()

	id, err := a.next(ctx, kind)
	if err != nil {
		return "", err
	}
	if err := write(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

func (a *Allocator) next(ctx context.Context, kind Kind) (string, error) {
	var latest bson.M
	found, err := a.gw.FindOne(ctx, kind.Collection, store.Filter{},
		&store.FindOptions{
			Sort:       &store.Sort{Field: kind.Field, Descending: true},
			Projection: bson.M{kind.Field: 1},
		}, &latest)
	if err != nil {
		return "", fmt.Errorf("failed to read latest %s id: %w", kind.Name, err)
	}

	base := 0
	if found {
		base, err = parseSequence(kind, latest[kind.Field])
		if err != nil {
			return "", err
		}
	}

	if base >= MaxSequence {
		return "", apperrors.NewInternal(fmt.Errorf("%s: %w after %s", kind.Name, ErrSequenceExhausted, Format(kind.Prefix, base)))
	}

	if a.metrics != nil {
		a.metrics.IDAllocations.WithLabelValues(kind.Name).Inc()
	}
	return Format(kind.Prefix, base+1), nil
}

func parseSequence(kind Kind, raw interface{}) (int, error) {
	// Documents without the field sort last, so a nil here means no
	// record of this kind carries an identifier yet.
	if raw == nil {
		return 0, nil
	}
	id, ok := raw.(string)
	if !ok {
		return 0, apperrors.NewInternal(fmt.Errorf("%s id %v is not a string", kind.Name, raw))
	}
	suffix := strings.TrimPrefix(id, kind.Prefix)
	n, err := strconv.Atoi(suffix)
	if suffix == id || err != nil || n < 0 {
		return 0, apperrors.NewInternal(fmt.Errorf("malformed %s id %q", kind.Name, id))
	}
	return n, nil
}
