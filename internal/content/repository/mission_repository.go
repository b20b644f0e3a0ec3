package repository

import (
	"errors"

	"github.com/sarathi/sarathi/internal/common/database"
	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	"github.com/sarathi/sarathi/internal/content/models"
	"gorm.io/gorm"
)

// GetMission retrieves a mission by id. Returns nil when not found.
func GetMission(id string) (*models.Mission, error) {
	var mission models.Mission
	result := database.DB.Where("id = ?", id).First(&mission)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal("failed to fetch mission", result.Error.Error())
	}
	return &mission, nil
}

// ListActiveMissions retrieves every active mission in the catalog.
func ListActiveMissions() ([]*models.Mission, error) {
	var missions []*models.Mission
	result := database.DB.Where("is_active = ?", true).Order("created_at ASC").Find(&missions)
	if result.Error != nil {
		return nil, apperrors.Internal("failed to list missions", result.Error.Error())
	}
	return missions, nil
}

// UpsertMission writes a catalog mission, replacing any prior row with the
// same id. Used only at seed/startup time; content is read-only afterwards.
func UpsertMission(mission *models.Mission) error {
	existing, err := GetMission(mission.ID)
	if err != nil {
		return err
	}

	var result *gorm.DB
	if existing == nil {
		result = database.DB.Create(mission)
	} else {
		result = database.DB.Model(&models.Mission{}).Where("id = ?", mission.ID).Updates(map[string]interface{}{
			"title":          mission.Title,
			"description":    mission.Description,
			"difficulty":     mission.Difficulty,
			"xp_reward":      mission.XPReward,
			"schema_version": mission.SchemaVersion,
			"content":        mission.Content,
			"is_active":      mission.IsActive,
		})
	}
	if result.Error != nil {
		return apperrors.Internal("failed to write mission", result.Error.Error())
	}
	return nil
}
