package services

import (
	"github.com/sarathi/sarathi/internal/stats/models"
	"github.com/sarathi/sarathi/internal/stats/repository"
)

// GetUserStats returns a user's stats with the derived XP-to-next-level.
func GetUserStats(userID string) (*models.UserStatsResponse, error) {
	user, err := repository.GetUser(userID)
	if err != nil {
		return nil, err
	}
	return toStatsResponse(user), nil
}

// ApplyCompletionReward grants the completion XP and the associated badge
// and streak bump. Callers guard idempotence by checking the progress
// record's completed flag first; the award itself is serialized per user.
func ApplyCompletionReward(userID string, xpEarned int, missionID, reason string) (*models.UserStatsResponse, error) {
	user, err := repository.AwardCompletion(userID, xpEarned, missionID, reason)
	if err != nil {
		return nil, err
	}
	return toStatsResponse(user), nil
}

// CreateUser seeds a user record.
func CreateUser(req models.CreateUserRequest) (*models.User, error) {
	return repository.CreateUser(req.Username, req.Name, req.Role)
}

// ListStudents returns every student's stats, for the teacher dashboard.
func ListStudents() ([]*models.UserStatsResponse, error) {
	users, err := repository.ListUsers()
	if err != nil {
		return nil, err
	}

	students := make([]*models.UserStatsResponse, 0, len(users))
	for _, user := range users {
		if user.Role != "student" {
			continue
		}
		students = append(students, toStatsResponse(user))
	}
	return students, nil
}

func toStatsResponse(user *models.User) *models.UserStatsResponse {
	nextLevelXP := user.Level * models.XPPerLevel
	xpToNext := nextLevelXP - user.TotalXP
	if xpToNext < 0 {
		xpToNext = 0
	}

	return &models.UserStatsResponse{
		UserID:        user.ID,
		Username:      user.Username,
		Name:          user.Name,
		Level:         user.Level,
		TotalXP:       user.TotalXP,
		XPToNextLevel: xpToNext,
		Streak:        user.Streak,
		Badges:        user.Badges,
	}
}
