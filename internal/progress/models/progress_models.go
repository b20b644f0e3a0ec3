package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// Phase names match the values persisted by the web client.
const (
	PhaseLearn     = "learn"
	PhasePlay      = "play"
	PhaseConquer   = "conquer"
	PhaseCompleted = "completed"
)

// ValidPhase reports whether s is one of the four phase names.
func ValidPhase(s string) bool {
	switch s {
	case PhaseLearn, PhasePlay, PhaseConquer, PhaseCompleted:
		return true
	}
	return false
}

// ProgressRecord is the persisted state of one user's run of one mission.
// Records are created on first phase entry and overwritten on resume;
// they are never deleted.
type ProgressRecord struct {
	ID              string     `gorm:"primaryKey" json:"id"`
	UserID          string     `gorm:"index:idx_user_mission,unique;not null" json:"user_id"`
	MissionID       string     `gorm:"index:idx_user_mission,unique;not null" json:"mission_id"`
	Phase           string     `gorm:"default:learn" json:"phase"`
	LearnProgress   int        `gorm:"default:0" json:"learn_progress"`
	PlayProgress    int        `gorm:"default:0" json:"play_progress"`
	ConquerProgress int        `gorm:"default:0" json:"conquer_progress"`
	Answers         string     `gorm:"type:text" json:"answers"` // JSON question-index -> option-index
	Score           *int       `json:"score,omitempty"`
	Completed       bool       `gorm:"default:false" json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AnswerMap decodes the stored answers payload.
func (r *ProgressRecord) AnswerMap() map[int]int {
	answers := make(map[int]int)
	if r.Answers == "" {
		return answers
	}

	var raw map[string]int
	if err := json.Unmarshal([]byte(r.Answers), &raw); err != nil {
		return answers
	}
	for k, v := range raw {
		if idx, err := strconv.Atoi(k); err == nil {
			answers[idx] = v
		}
	}
	return answers
}

// EncodeAnswers serializes an answer map for storage.
func EncodeAnswers(answers map[int]int) string {
	if len(answers) == 0 {
		return ""
	}
	raw := make(map[string]int, len(answers))
	for k, v := range answers {
		raw[strconv.Itoa(k)] = v
	}
	encoded, _ := json.Marshal(raw)
	return string(encoded)
}

// ProgressWrite is a partial update to a progress record. Nil fields keep
// the stored value (merge semantics); a missing record starts from the
// learn-phase defaults.
type ProgressWrite struct {
	UserID          string
	MissionID       string
	Phase           *string
	LearnProgress   *int
	PlayProgress    *int
	ConquerProgress *int
	Answers         map[int]int
	Score           *int
	Completed       *bool
	CompletedAt     *time.Time
}

// UpsertProgressRequest is the REST body for POST /api/mission-progress.
type UpsertProgressRequest struct {
	UserID          string      `json:"userId" binding:"required"`
	MissionID       string      `json:"missionId" binding:"required"`
	Phase           *string     `json:"phase,omitempty"`
	LearnProgress   *int        `json:"learnProgress,omitempty"`
	PlayProgress    *int        `json:"playProgress,omitempty"`
	ConquerProgress *int        `json:"conquerProgress,omitempty"`
	Answers         map[int]int `json:"answers,omitempty"`
	Score           *int        `json:"score,omitempty"`
	Completed       *bool       `json:"completed,omitempty"`
}
