package idgen

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/store/memory"
	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
	"github.com/jwalitptl/ward-assistant/pkg/metrics"
)

func TestAllocateEmptyCollection(t *testing.T) {
	a := NewAllocator(memory.New(), metrics.NewNop())

	id, err := a.Allocate(context.Background(), Prescription)

	require.NoError(t, err)
	assert.Equal(t, "PR_001", id)
}

func TestAllocateAfterMaximum(t *testing.T) {
	mem := memory.New()
	for _, id := range []string{"PR_003", "PR_007", "PR_001"} {
		require.NoError(t, mem.Seed(model.CollectionPrescriptions, bson.M{"prescription_id": id}))
	}
	a := NewAllocator(mem, nil)

	id, err := a.Allocate(context.Background(), Prescription)

	require.NoError(t, err)
	assert.Equal(t, "PR_008", id)
}

func TestAllocateStaffKinds(t *testing.T) {
	mem := memory.New()
	require.NoError(t, mem.Seed(model.CollectionAdministrators, bson.M{"admin_id": "ADM_004", "name": "Root"}))
	a := NewAllocator(mem, nil)
	ctx := context.Background()

	doc, err := a.Allocate(ctx, StaffKind(model.RoleDoctor))
	require.NoError(t, err)
	adm, err := a.Allocate(ctx, StaffKind(model.RoleAdmin))
	require.NoError(t, err)

	assert.Equal(t, "DOC_001", doc)
	assert.Equal(t, "ADM_005", adm)
}

func TestAllocateMalformedMaximum(t *testing.T) {
	mem := memory.New()
	require.NoError(t, mem.Seed(model.CollectionNoteEvents, bson.M{"note_id": "NOTE_abc"}))

	_, err := NewAllocator(mem, nil).Allocate(context.Background(), Note)

	assert.True(t, apperrors.Is(err, apperrors.ErrInternal))
}

func TestAllocateIsPure(t *testing.T) {
	mem := memory.New()
	a := NewAllocator(mem, nil)

	first, err := a.Allocate(context.Background(), MedicationEvent)
	require.NoError(t, err)
	second, err := a.Allocate(context.Background(), MedicationEvent)
	require.NoError(t, err)

	assert.Equal(t, "MME_001", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 0, mem.Inserts())
}

func TestNextSerializesConcurrentWriters(t *testing.T) {
	mem := memory.New()
	a := NewAllocator(mem, nil)
	ctx := context.Background()

	const writers = 20
	ids := make([]string, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := a.Next(ctx, Prescription, func(ctx context.Context, id string) error {
				return mem.InsertOne(ctx, model.CollectionPrescriptions, bson.M{"prescription_id": id})
			})
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.True(t, seen["PR_020"])
}

func TestNextFailedWriteLeavesSequence(t *testing.T) {
	mem := memory.New()
	a := NewAllocator(mem, nil)
	boom := errors.New("insert failed")

	_, err := a.Next(context.Background(), Note, func(context.Context, string) error { return boom })
	assert.ErrorIs(t, err, boom)

	id, err := a.Allocate(context.Background(), Note)
	require.NoError(t, err)
	assert.Equal(t, "NOTE_001", id)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "PR_001", Format("PR_", 1))
	assert.Equal(t, "NOTE_042", Format("NOTE_", 42))
	assert.Equal(t, "MME_1000", Format("MME_", 1000))
}

func TestNextRefusesPastThreeDigits(t *testing.T) {
	mem := memory.New()
	require.NoError(t, mem.Seed(model.CollectionPrescriptions, bson.M{"prescription_id": "PR_998"}))
	a := NewAllocator(mem, nil)
	ctx := context.Background()
	insert := func(ctx context.Context, id string) error {
		return mem.InsertOne(ctx, model.CollectionPrescriptions, bson.M{"prescription_id": id})
	}

	id, err := a.Next(ctx, Prescription, insert)
	require.NoError(t, err)
	assert.Equal(t, "PR_999", id)

	for i := 0; i < 2; i++ {
		_, err = a.Next(ctx, Prescription, insert)
		assert.ErrorIs(t, err, ErrSequenceExhausted)
		assert.True(t, apperrors.Is(err, apperrors.ErrInternal))
	}
	assert.Equal(t, 1, mem.Inserts())
}
