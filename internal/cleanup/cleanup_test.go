package cleanup

import (
	"testing"
	"time"

	"property-appraisal/internal/models"
	"property-appraisal/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndexer struct {
	removed []string
}

func (f *fakeIndexer) RemoveProperty(id string) error {
	f.removed = append(f.removed, id)
	return nil
}

// futureRetention yields a cutoff in the future so just-written processing
// rows count as orphaned.
const futureRetention = -time.Minute

func seedOrphan(t *testing.T, s store.Store, id string) {
	t.Helper()
	require.NoError(t, s.CreateProperty(&models.Property{
		ID:            id,
		Address:       "99 Stale Ave",
		SquareFootage: 1500,
		Status:        models.PropertyStatusProcessing,
	}))
	require.NoError(t, s.CreateRun(&models.PipelineRun{
		PropertyID: id,
		Kind:       models.RunKindDigitization,
		Stage:      "generating_insights",
		Status:     models.RunStatusFailed,
	}))
}

func TestSweep_DeletesOrphansOnly(t *testing.T) {
	memStore := store.NewMemoryStore()
	indexer := &fakeIndexer{}
	service := NewService(memStore, indexer)

	seedOrphan(t, memStore, "orphan-1")
	require.NoError(t, memStore.CreateProperty(&models.Property{
		ID:            "done-1",
		Address:       "1 Finished Rd",
		SquareFootage: 1800,
		Status:        models.PropertyStatusCompleted,
	}))

	result, err := service.Sweep(SweepConfig{
		Retention:        futureRetention,
		MaxDeletionCount: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.TargetCount)
	assert.Equal(t, 1, result.DeletedCount)
	assert.Equal(t, []string{"orphan-1"}, result.DeletedProperties)
	assert.Equal(t, []string{"orphan-1"}, indexer.removed)

	_, err = memStore.GetProperty("orphan-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = memStore.GetProperty("done-1")
	assert.NoError(t, err, "completed properties are never swept")

	logs, err := memStore.RecentDeleteLogs(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "orphan-1", logs[0].PropertyID)
	assert.Equal(t, models.DeleteReasonOrphan, logs[0].Reason)
	assert.Equal(t, "generating_insights", logs[0].Stage, "the stage the run died in is recorded")
}

func TestSweep_DryRunDeletesNothing(t *testing.T) {
	memStore := store.NewMemoryStore()
	service := NewService(memStore, nil)

	seedOrphan(t, memStore, "orphan-1")

	result, err := service.Sweep(SweepConfig{
		Retention:        futureRetention,
		MaxDeletionCount: 10,
		DryRun:           true,
	})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.DeletedCount)

	_, err = memStore.GetProperty("orphan-1")
	assert.NoError(t, err, "dry run must not delete")

	logs, err := memStore.RecentDeleteLogs(10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSweep_SafetyLimit(t *testing.T) {
	memStore := store.NewMemoryStore()
	service := NewService(memStore, nil)

	seedOrphan(t, memStore, "orphan-1")
	seedOrphan(t, memStore, "orphan-2")

	_, err := service.Sweep(SweepConfig{
		Retention:        futureRetention,
		MaxDeletionCount: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "safety check failed")

	_, err = memStore.GetProperty("orphan-1")
	assert.NoError(t, err, "nothing is deleted when the safety check trips")
}

func TestSweep_RespectsRetentionWindow(t *testing.T) {
	memStore := store.NewMemoryStore()
	service := NewService(memStore, nil)

	seedOrphan(t, memStore, "fresh-1")

	result, err := service.Sweep(SweepConfig{
		Retention:        24 * time.Hour,
		MaxDeletionCount: 10,
	})
	require.NoError(t, err)
	assert.Zero(t, result.TargetCount, "a fresh processing property is not yet an orphan")
}
