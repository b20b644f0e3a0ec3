package repository

import (
	"sync"

	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	"github.com/sarathi/sarathi/internal/progress/models"
)

// MemoryStore keeps progress records in a map. It honors the same merge
// and invariant semantics as GormStore and backs tests and local,
// database-free deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.ProgressRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*models.ProgressRecord),
	}
}

func key(userID, missionID string) string {
	return userID + ":" + missionID
}

func (s *MemoryStore) Get(userID, missionID string) (*models.ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[key(userID, missionID)]
	if !ok {
		return nil, apperrors.NotFound("progress record")
	}
	copied := *record
	return &copied, nil
}

func (s *MemoryStore) Upsert(write models.ProgressWrite) (*models.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.records[key(write.UserID, write.MissionID)]
	record, err := applyWrite(existing, write)
	if err != nil {
		return nil, err
	}

	s.records[key(write.UserID, write.MissionID)] = record
	copied := *record
	return &copied, nil
}
