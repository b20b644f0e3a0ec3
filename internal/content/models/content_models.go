package models

import (
	"encoding/json"
	"time"
)

// Content schema versions. Version 1 is the legacy treasure-hunt shape
// (clue trail lessons); version 2 is the current mission shape. Decoding
// always yields version 2.
const (
	SchemaVersionTreasure = 1
	SchemaVersionMission  = 2
)

// Mission is one learning unit in the catalog. Content holds the
// version-tagged JSON payload; it is immutable at runtime.
type Mission struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"not null" json:"title"`
	Description   string    `json:"description"`
	Difficulty    int       `gorm:"default:1" json:"difficulty"`
	XPReward      int       `gorm:"default:500" json:"xp_reward"`
	SchemaVersion int       `gorm:"default:2" json:"schema_version"`
	Content       string    `gorm:"type:text;not null" json:"-"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// MissionContent is the decoded, version-2 content of a mission.
type MissionContent struct {
	LearnCards    []LearnCard    `json:"learn_cards"`
	QuizQuestions []QuizQuestion `json:"quiz_questions,omitempty"`
	Puzzle        *Puzzle        `json:"puzzle,omitempty"`
}

// LearnCard is one page of the Learn phase.
type LearnCard struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Image string `json:"image,omitempty"`
}

// QuizQuestion is one multiple-choice question of the Conquer phase.
type QuizQuestion struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation,omitempty"`
}

// Puzzle is the drag-and-drop Conquer variant: labelled slots that each
// accept exactly one token, plus free-text connector fields.
type Puzzle struct {
	Slots       []PuzzleSlot       `json:"slots"`
	Connections []PuzzleConnection `json:"connections,omitempty"`
}

type PuzzleSlot struct {
	SlotID        string `json:"slot_id"`
	RequiredToken string `json:"required_token"`
	Label         string `json:"label"`
}

type PuzzleConnection struct {
	Key      string   `json:"key"`
	Accepted []string `json:"accepted"`
}

// TreasureContent is the legacy version-1 shape, kept only for migration.
type TreasureContent struct {
	ClueTrail []ClueTrailLesson `json:"clueTrail"`
}

type ClueTrailLesson struct {
	LessonID int    `json:"lessonId"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Clue     Clue   `json:"clue"`
}

type Clue struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// MissionDetail is a mission with its content decoded.
type MissionDetail struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Difficulty    int             `json:"difficulty"`
	XPReward      int             `json:"xp_reward"`
	SchemaVersion int             `json:"schema_version"`
	Content       *MissionContent `json:"content"`
}

// QuestionCount returns the number of quiz questions.
func (d *MissionDetail) QuestionCount() int {
	if d.Content == nil {
		return 0
	}
	return len(d.Content.QuizQuestions)
}

// IsPuzzle reports whether the Conquer phase is the puzzle variant.
func (d *MissionDetail) IsPuzzle() bool {
	return d.Content != nil && d.Content.Puzzle != nil
}

// MissionSummary is the list representation for the dashboard.
type MissionSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  int    `json:"difficulty"`
	XPReward    int    `json:"xp_reward"`
	LearnCards  int    `json:"learn_cards"`
	Questions   int    `json:"questions"`
	HasPuzzle   bool   `json:"has_puzzle"`
}

// CatalogEntry is one mission in the static JSON catalog file.
type CatalogEntry struct {
	ID            string          `json:"id" binding:"required"`
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	Difficulty    int             `json:"difficulty"`
	XPReward      int             `json:"xp_reward"`
	SchemaVersion int             `json:"schema_version"`
	Content       json.RawMessage `json:"content" binding:"required"`
}
