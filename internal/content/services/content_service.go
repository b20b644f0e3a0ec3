package services

import (
	"encoding/json"
	"os"

	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	"github.com/sarathi/sarathi/internal/content/models"
	"github.com/sarathi/sarathi/internal/content/repository"
	"github.com/sarathi/sarathi/pkg/logger"
	"go.uber.org/zap"
)

// LoadMission retrieves a mission and decodes its content.
func LoadMission(id string) (*models.MissionDetail, error) {
	mission, err := repository.GetMission(id)
	if err != nil {
		return nil, err
	}
	if mission == nil {
		return nil, apperrors.NotFound("mission")
	}

	content, err := DecodeContent([]byte(mission.Content), mission.SchemaVersion)
	if err != nil {
		return nil, err
	}

	return &models.MissionDetail{
		ID:            mission.ID,
		Title:         mission.Title,
		Description:   mission.Description,
		Difficulty:    mission.Difficulty,
		XPReward:      mission.XPReward,
		SchemaVersion: models.SchemaVersionMission,
		Content:       content,
	}, nil
}

// ListMissions returns summaries of every active catalog mission.
func ListMissions() ([]*models.MissionSummary, error) {
	missions, err := repository.ListActiveMissions()
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.MissionSummary, 0, len(missions))
	for _, m := range missions {
		content, err := DecodeContent([]byte(m.Content), m.SchemaVersion)
		if err != nil {
			// A bad catalog row should not hide the rest of the catalog.
			logger.Warn("skipping mission with undecodable content",
				zap.String("mission_id", m.ID), zap.Error(err))
			continue
		}
		summaries = append(summaries, &models.MissionSummary{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Difficulty:  m.Difficulty,
			XPReward:    m.XPReward,
			LearnCards:  len(content.LearnCards),
			Questions:   len(content.QuizQuestions),
			HasPuzzle:   content.Puzzle != nil,
		})
	}
	return summaries, nil
}

// SeedCatalog loads the static JSON catalog file into the content store.
// Entries are validated and upserted; existing rows are replaced so that
// re-running the seed is safe.
func SeedCatalog(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, apperrors.Internal("failed to read catalog file", err.Error())
	}

	var entries []models.CatalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return 0, apperrors.Validation("malformed catalog file", err.Error())
	}

	seeded := 0
	for _, entry := range entries {
		version := entry.SchemaVersion
		if version == 0 {
			version = models.SchemaVersionMission
		}

		content, err := DecodeContent(entry.Content, version)
		if err != nil {
			return seeded, err
		}
		if err := ValidateContent(content); err != nil {
			return seeded, err
		}
		if entry.XPReward < 0 {
			return seeded, apperrors.Validation("mission content invalid", "xp reward must not be negative")
		}

		xpReward := entry.XPReward
		if xpReward == 0 {
			xpReward = 500
		}

		mission := &models.Mission{
			ID:            entry.ID,
			Title:         entry.Title,
			Description:   entry.Description,
			Difficulty:    entry.Difficulty,
			XPReward:      xpReward,
			SchemaVersion: version,
			Content:       string(entry.Content),
			IsActive:      true,
		}
		if err := repository.UpsertMission(mission); err != nil {
			return seeded, err
		}
		seeded++
	}

	logger.Info("catalog seeded", zap.Int("missions", seeded), zap.String("path", path))
	return seeded, nil
}
