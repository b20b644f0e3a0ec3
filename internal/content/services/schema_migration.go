package services

import (
	"encoding/json"
	"fmt"
	"strconv"

	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	"github.com/sarathi/sarathi/internal/content/models"
)

// DecodeContent turns a version-tagged content payload into the current
// mission shape. Legacy treasure content is migrated on the fly so that
// old catalog rows keep working without duplicate type hierarchies.
func DecodeContent(raw []byte, schemaVersion int) (*models.MissionContent, error) {
	switch schemaVersion {
	case models.SchemaVersionMission:
		var content models.MissionContent
		if err := json.Unmarshal(raw, &content); err != nil {
			return nil, apperrors.Validation("malformed mission content", err.Error())
		}
		return &content, nil

	case models.SchemaVersionTreasure:
		var legacy models.TreasureContent
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, apperrors.Validation("malformed treasure content", err.Error())
		}
		return MigrateTreasureContent(&legacy), nil

	default:
		return nil, apperrors.Validation("unknown content schema version", strconv.Itoa(schemaVersion))
	}
}

// MigrateTreasureContent upgrades version-1 treasure content to the mission
// shape. Each clue-trail lesson becomes a learn card; the clue itself is
// folded into the card body so nothing authored is lost.
func MigrateTreasureContent(legacy *models.TreasureContent) *models.MissionContent {
	content := &models.MissionContent{
		LearnCards: make([]models.LearnCard, len(legacy.ClueTrail)),
	}

	for i, lesson := range legacy.ClueTrail {
		body := lesson.Content
		if lesson.Clue.Name != "" {
			body = fmt.Sprintf("%s\n\n%s %s: %s", lesson.Content, lesson.Clue.Emoji, lesson.Clue.Name, lesson.Clue.Description)
		}
		content.LearnCards[i] = models.LearnCard{
			Title: lesson.Title,
			Body:  body,
		}
	}

	return content
}

// ValidateContent enforces the catalog invariants before a mission is
// accepted: at least one learn card, a quiz or a puzzle, quiz questions
// with two or more options and an in-range correct index, puzzle slots
// with a bound token.
func ValidateContent(content *models.MissionContent) error {
	if len(content.LearnCards) == 0 {
		return apperrors.Validation("mission content invalid", "at least one learn card is required")
	}

	if len(content.QuizQuestions) == 0 && content.Puzzle == nil {
		return apperrors.Validation("mission content invalid", "a quiz or a puzzle is required")
	}

	for i, q := range content.QuizQuestions {
		if len(q.Options) < 2 {
			return apperrors.Validation("mission content invalid",
				fmt.Sprintf("question %d needs at least two options", i))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return apperrors.Validation("mission content invalid",
				fmt.Sprintf("question %d correct index out of range", i))
		}
	}

	if content.Puzzle != nil {
		if len(content.Puzzle.Slots) == 0 {
			return apperrors.Validation("mission content invalid", "puzzle needs at least one slot")
		}
		for _, slot := range content.Puzzle.Slots {
			if slot.SlotID == "" || slot.RequiredToken == "" {
				return apperrors.Validation("mission content invalid", "puzzle slot missing id or token")
			}
		}
		for _, conn := range content.Puzzle.Connections {
			if conn.Key == "" || len(conn.Accepted) == 0 {
				return apperrors.Validation("mission content invalid", "puzzle connection missing key or accepted answers")
			}
		}
	}

	return nil
}
