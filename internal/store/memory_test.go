package store

import (
	"testing"
	"time"

	"property-appraisal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PropertyLifecycle(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.GetProperty("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	prop := &models.Property{
		ID:            "p1",
		Address:       "1 Main St",
		SquareFootage: 1000,
		Status:        models.PropertyStatusProcessing,
	}
	require.NoError(t, s.CreateProperty(prop))

	got, err := s.GetProperty("p1")
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", got.Address)

	got.Status = models.PropertyStatusCompleted
	require.NoError(t, s.UpdateProperty(got))

	updated, err := s.GetProperty("p1")
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusCompleted, updated.Status)

	count, err := s.CountProperties()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_ProcessingPropertiesBefore(t *testing.T) {
	s := NewMemoryStore()

	require.NoError(t, s.CreateProperty(&models.Property{
		ID: "stuck", Address: "a", SquareFootage: 1, Status: models.PropertyStatusProcessing,
	}))
	require.NoError(t, s.CreateProperty(&models.Property{
		ID: "done", Address: "b", SquareFootage: 1, Status: models.PropertyStatusCompleted,
	}))

	found, err := s.ProcessingPropertiesBefore(time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "stuck", found[0].ID)

	found, err = s.ProcessingPropertiesBefore(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestMemoryStore_ComponentsWithPhotos(t *testing.T) {
	s := NewMemoryStore()

	c := &models.Component{ID: "c1", PropertyID: "p1", ComponentType: "roof"}
	photos := []models.ComponentPhoto{
		{PhotoURL: "https://example.com/a.jpg", SortOrder: 0},
		{PhotoURL: "https://example.com/b.jpg", SortOrder: 1},
	}
	require.NoError(t, s.CreateComponent(c, photos))

	components, err := s.ComponentsByProperty("p1")
	require.NoError(t, err)
	require.Len(t, components, 1)

	attached := s.PhotosByComponent("c1")
	require.Len(t, attached, 2)
	assert.Equal(t, "c1", attached[0].ComponentID)
	assert.NotZero(t, attached[0].ID)
}

func TestMemoryStore_ReportByType(t *testing.T) {
	s := NewMemoryStore()

	require.NoError(t, s.CreateReport(&models.Report{
		ID: "r1", PropertyID: "p1", ReportType: models.ReportTypeInspection,
	}))
	require.NoError(t, s.CreateReport(&models.Report{
		ID: "r2", PropertyID: "p1", ReportType: models.ReportTypeAppraisal,
	}))

	report, err := s.ReportByType("p1", string(models.ReportTypeAppraisal))
	require.NoError(t, err)
	assert.Equal(t, "r2", report.ID)

	_, err = s.ReportByType("p2", string(models.ReportTypeAppraisal))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_DeletePropertyRemovesDependents(t *testing.T) {
	s := NewMemoryStore()

	require.NoError(t, s.CreateProperty(&models.Property{
		ID: "p1", Address: "a", SquareFootage: 1, Status: models.PropertyStatusProcessing,
	}))
	require.NoError(t, s.CreateComponent(&models.Component{ID: "c1", PropertyID: "p1", ComponentType: "roof"}, nil))
	require.NoError(t, s.CreateReport(&models.Report{ID: "r1", PropertyID: "p1", ReportType: models.ReportTypeInspection}))
	require.NoError(t, s.CreateValuationSnapshot(&models.ValuationSnapshot{PropertyID: "p1"}))

	require.NoError(t, s.DeleteProperty("p1"))

	_, err := s.GetProperty("p1")
	assert.ErrorIs(t, err, ErrNotFound)

	components, _ := s.ComponentsByProperty("p1")
	assert.Empty(t, components)
	reports, _ := s.ReportsByProperty("p1")
	assert.Empty(t, reports)
	snapshots, _ := s.ValuationHistory("p1")
	assert.Empty(t, snapshots)
}
