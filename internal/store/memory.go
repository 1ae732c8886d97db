package store

import (
	"sort"
	"sync"
	"time"

	"property-appraisal/internal/models"
)

// MemoryStore is an in-memory Store used by tests and the PoC binary.
type MemoryStore struct {
	mu          sync.RWMutex
	properties  map[string]models.Property
	components  map[string][]models.Component
	photos      map[string][]models.ComponentPhoto
	reports     map[string]models.Report
	runs        []models.PipelineRun
	snapshots   map[string][]models.ValuationSnapshot
	deleteLogs  []models.DeleteLog
	nextRunID   int64
	nextSnapID  uint
	nextPhotoID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		properties: make(map[string]models.Property),
		components: make(map[string][]models.Component),
		photos:     make(map[string][]models.ComponentPhoto),
		reports:    make(map[string]models.Report),
		snapshots:  make(map[string][]models.ValuationSnapshot),
	}
}

func (m *MemoryStore) CreateProperty(p *models.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.properties[p.ID] = *p
	return nil
}

func (m *MemoryStore) UpdateProperty(p *models.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.properties[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	m.properties[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetProperty(id string) (*models.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.properties[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ProcessingPropertiesBefore(cutoff time.Time) ([]models.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Property
	for _, p := range m.properties {
		if p.Status == models.PropertyStatusProcessing && p.UpdatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemoryStore) DeleteProperty(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.properties, id)
	for _, c := range m.components[id] {
		delete(m.photos, c.ID)
	}
	delete(m.components, id)
	for rid, r := range m.reports {
		if r.PropertyID == id {
			delete(m.reports, rid)
		}
	}
	delete(m.snapshots, id)
	return nil
}

func (m *MemoryStore) CountProperties() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.properties)), nil
}

func (m *MemoryStore) CreateComponent(c *models.Component, photos []models.ComponentPhoto) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	m.components[c.PropertyID] = append(m.components[c.PropertyID], *c)
	for i := range photos {
		m.nextPhotoID++
		photos[i].ID = m.nextPhotoID
		photos[i].ComponentID = c.ID
		photos[i].CreatedAt = now
		m.photos[c.ID] = append(m.photos[c.ID], photos[i])
	}
	return nil
}

func (m *MemoryStore) ComponentsByProperty(propertyID string) ([]models.Component, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Component, len(m.components[propertyID]))
	copy(out, m.components[propertyID])
	return out, nil
}

func (m *MemoryStore) CreateReport(r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	m.reports[r.ID] = *r
	return nil
}

func (m *MemoryStore) UpdateReport(r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[r.ID]; !ok {
		return ErrNotFound
	}
	r.UpdatedAt = time.Now()
	m.reports[r.ID] = *r
	return nil
}

func (m *MemoryStore) ReportByType(propertyID, reportType string) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reports {
		if r.PropertyID == propertyID && string(r.ReportType) == reportType {
			out := r
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ReportsByProperty(propertyID string) ([]models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Report
	for _, r := range m.reports {
		if r.PropertyID == propertyID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) CreateRun(run *models.PipelineRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRunID++
	run.ID = m.nextRunID
	now := time.Now()
	run.StartedAt = now
	run.UpdatedAt = now
	m.runs = append(m.runs, *run)
	return nil
}

func (m *MemoryStore) UpdateRun(run *models.PipelineRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			run.UpdatedAt = time.Now()
			m.runs[i] = *run
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) RecentRuns(limit int) ([]models.PipelineRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.PipelineRun, len(m.runs))
	copy(out, m.runs)
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) LatestRun(propertyID string) (*models.PipelineRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.PipelineRun
	for i := range m.runs {
		if m.runs[i].PropertyID != propertyID {
			continue
		}
		if latest == nil || m.runs[i].StartedAt.After(latest.StartedAt) {
			latest = &m.runs[i]
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (m *MemoryStore) CreateValuationSnapshot(s *models.ValuationSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSnapID++
	s.ID = m.nextSnapID
	s.CreatedAt = time.Now()
	m.snapshots[s.PropertyID] = append(m.snapshots[s.PropertyID], *s)
	return nil
}

func (m *MemoryStore) ValuationHistory(propertyID string) ([]models.ValuationSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ValuationSnapshot, len(m.snapshots[propertyID]))
	copy(out, m.snapshots[propertyID])
	return out, nil
}

func (m *MemoryStore) CreateDeleteLog(l *models.DeleteLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = uint(len(m.deleteLogs) + 1)
	l.DeletedAt = time.Now()
	m.deleteLogs = append(m.deleteLogs, *l)
	return nil
}

func (m *MemoryStore) RecentDeleteLogs(limit int) ([]models.DeleteLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.DeleteLog, len(m.deleteLogs))
	copy(out, m.deleteLogs)
	sort.Slice(out, func(i, j int) bool { return out[i].DeletedAt.After(out[j].DeletedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PhotosByComponent is used by the PoC to show attached evidence.
func (m *MemoryStore) PhotosByComponent(componentID string) []models.ComponentPhoto {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ComponentPhoto, len(m.photos[componentID]))
	copy(out, m.photos[componentID])
	return out
}
