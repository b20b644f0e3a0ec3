package models

import "time"

// XP needed per level. Level is always derived from TotalXP, never stored
// without recomputation.
const XPPerLevel = 500

// LevelForXP derives the level from a total XP amount.
func LevelForXP(totalXP int) int {
	return totalXP/XPPerLevel + 1
}

// User carries identity plus the gamification counters mutated exactly
// once per mission completion.
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"unique;not null" json:"username"`
	Name      string    `json:"name"`
	Role      string    `gorm:"default:student" json:"role"`
	Level     int       `gorm:"default:1" json:"level"`
	TotalXP   int       `gorm:"default:0" json:"total_xp"`
	Streak    int       `gorm:"default:0" json:"streak"`
	Badges    int       `gorm:"default:0" json:"badges"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// XPLog records XP awards for auditing
type XPLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index" json:"user_id"`
	Amount    int       `json:"amount"`
	Source    string    `json:"source"` // mission id
	Reason    string    `json:"reason"` // "mission_completed", "offline_sync", ...
	CreatedAt time.Time `json:"created_at"`
}

// StreakLedger tracks consecutive activity days per user.
type StreakLedger struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           string    `gorm:"unique;not null" json:"user_id"`
	CurrentStreak    int       `gorm:"default:0" json:"current_streak"`
	LongestStreak    int       `gorm:"default:0" json:"longest_streak"`
	LastActivityDate time.Time `json:"last_activity_date"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateUserRequest seeds a user for tests and local development.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=1,max=64"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=student teacher"`
}

// UserStatsResponse is the REST shape of a user's stats.
type UserStatsResponse struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	Name          string `json:"name"`
	Level         int    `json:"level"`
	TotalXP       int    `json:"total_xp"`
	XPToNextLevel int    `json:"xp_to_next_level"`
	Streak        int    `json:"streak"`
	Badges        int    `json:"badges"`
}
