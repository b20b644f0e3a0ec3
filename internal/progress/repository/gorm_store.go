package repository

import (
	"errors"

	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	"github.com/sarathi/sarathi/internal/progress/models"
	"gorm.io/gorm"
)

// GormStore persists progress records in the relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(userID, missionID string) (*models.ProgressRecord, error) {
	var record models.ProgressRecord
	result := s.db.Where("user_id = ? AND mission_id = ?", userID, missionID).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("progress record")
		}
		return nil, apperrors.Unavailable("progress read failed", result.Error.Error())
	}
	return &record, nil
}

func (s *GormStore) Upsert(write models.ProgressWrite) (*models.ProgressRecord, error) {
	var persisted *models.ProgressRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing *models.ProgressRecord
		var current models.ProgressRecord
		result := tx.Where("user_id = ? AND mission_id = ?", write.UserID, write.MissionID).First(&current)
		if result.Error == nil {
			existing = &current
		} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return apperrors.Unavailable("progress read failed", result.Error.Error())
		}

		record, err := applyWrite(existing, write)
		if err != nil {
			return err
		}

		if err := tx.Save(record).Error; err != nil {
			return apperrors.Unavailable("progress write failed", err.Error())
		}
		persisted = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return persisted, nil
}
