package storage

import (
	"context"
	"sort"
	"sync"

	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/ports"
)

const defaultRecentLimit = 20

// MemoryLedger keeps artifact records in process memory. Used when no
// database is configured; history is lost on restart.
type MemoryLedger struct {
	lock    sync.RWMutex
	records map[string]domain.ArtifactRecord
}

var _ ports.ArtifactLedger = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]domain.ArtifactRecord)}
}

func (m *MemoryLedger) Save(_ context.Context, record domain.ArtifactRecord) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.records[record.Filename] = record
	return nil
}

func (m *MemoryLedger) Get(_ context.Context, filename string) (domain.ArtifactRecord, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	record, ok := m.records[filename]
	return record, ok, nil
}

// Recent returns up to limit records, newest filename first.
func (m *MemoryLedger) Recent(_ context.Context, limit int) ([]domain.ArtifactRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	m.lock.RLock()
	result := make([]domain.ArtifactRecord, 0, len(m.records))
	for _, record := range m.records {
		result = append(result, record)
	}
	m.lock.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].Filename > result[j].Filename })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
