package services

import (
	"github.com/sarathi/sarathi/internal/progress/models"
	"github.com/sarathi/sarathi/internal/progress/repository"
)

// Service wraps a progress store and is the only write path for records.
type Service struct {
	store repository.Store
}

func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

// Get returns the record for one user x mission, or a NotFound error.
func (s *Service) Get(userID, missionID string) (*models.ProgressRecord, error) {
	return s.store.Get(userID, missionID)
}

// Upsert applies a partial write; see repository.Store for semantics.
func (s *Service) Upsert(write models.ProgressWrite) (*models.ProgressRecord, error) {
	return s.store.Upsert(write)
}

// UpsertFromRequest converts the REST body into a store write.
func (s *Service) UpsertFromRequest(req models.UpsertProgressRequest) (*models.ProgressRecord, error) {
	return s.store.Upsert(models.ProgressWrite{
		UserID:          req.UserID,
		MissionID:       req.MissionID,
		Phase:           req.Phase,
		LearnProgress:   req.LearnProgress,
		PlayProgress:    req.PlayProgress,
		ConquerProgress: req.ConquerProgress,
		Answers:         req.Answers,
		Score:           req.Score,
		Completed:       req.Completed,
	})
}
