package repository

import (
	"time"

	"github.com/google/uuid"
	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	"github.com/sarathi/sarathi/internal/common/validation"
	"github.com/sarathi/sarathi/internal/progress/models"
)

// Store is the progress persistence contract. Two interchangeable
// backends exist: GormStore for SQL and MemoryStore for tests and
// offline-first local use.
type Store interface {
	// Get returns the record for one user x mission, or a NotFound error.
	Get(userID, missionID string) (*models.ProgressRecord, error)
	// Upsert applies a partial write with merge semantics and returns the
	// persisted record. Fails with a Validation error when the write
	// breaks the record invariants.
	Upsert(write models.ProgressWrite) (*models.ProgressRecord, error)
}

// applyWrite merges a partial write into the existing record (or the
// learn-phase defaults) and enforces the record invariants:
// completed == true iff phase == completed iff completedAt is set,
// and per-phase progress stays within 0..100.
func applyWrite(existing *models.ProgressRecord, write models.ProgressWrite) (*models.ProgressRecord, error) {
	record := models.ProgressRecord{
		ID:        uuid.NewString(),
		UserID:    write.UserID,
		MissionID: write.MissionID,
		Phase:     models.PhaseLearn,
	}
	if existing != nil {
		record = *existing
	}

	if existing != nil && existing.Completed {
		completedWrite := write.Completed != nil && *write.Completed
		phaseWrite := write.Phase == nil || *write.Phase == models.PhaseCompleted
		if !completedWrite || !phaseWrite {
			return nil, apperrors.Validation("invalid progress write", "completed records cannot be reopened")
		}
		// Idempotent re-write of a completed record.
		record.UpdatedAt = time.Now()
		return &record, nil
	}

	if write.Phase != nil {
		if !models.ValidPhase(*write.Phase) {
			return nil, apperrors.Validation("invalid progress write", "unknown phase "+*write.Phase)
		}
		record.Phase = *write.Phase
	}
	if write.LearnProgress != nil {
		record.LearnProgress = *write.LearnProgress
	}
	if write.PlayProgress != nil {
		record.PlayProgress = *write.PlayProgress
	}
	if write.ConquerProgress != nil {
		record.ConquerProgress = *write.ConquerProgress
	}
	if write.Answers != nil {
		record.Answers = models.EncodeAnswers(write.Answers)
	}
	if write.Score != nil {
		record.Score = write.Score
	}
	if write.Completed != nil {
		record.Completed = *write.Completed
	}
	if write.CompletedAt != nil {
		record.CompletedAt = write.CompletedAt
	}

	for _, pct := range []int{record.LearnProgress, record.PlayProgress, record.ConquerProgress} {
		if err := validation.ValidateIntRange(pct, 0, 100); err != nil {
			return nil, apperrors.Validation("invalid progress write", "phase progress "+err.Error())
		}
	}

	// Keep the completion triple consistent regardless of which field the
	// caller set.
	if record.Completed {
		record.Phase = models.PhaseCompleted
		if record.CompletedAt == nil {
			now := time.Now()
			record.CompletedAt = &now
		}
	} else {
		if record.Phase == models.PhaseCompleted {
			return nil, apperrors.Validation("invalid progress write", "phase completed requires completed=true")
		}
		if record.CompletedAt != nil {
			return nil, apperrors.Validation("invalid progress write", "completedAt requires completed=true")
		}
	}

	record.UpdatedAt = time.Now()
	return &record, nil
}
