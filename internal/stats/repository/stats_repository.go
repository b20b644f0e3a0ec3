package repository

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sarathi/sarathi/internal/common/database"
	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	"github.com/sarathi/sarathi/internal/stats/models"
	"gorm.io/gorm"
)

// Per-user locks serialize award read-modify-write cycles so a live
// completion racing an offline flush never loses an update.
var (
	userLocksMu sync.Mutex
	userLocks   = make(map[string]*sync.Mutex)
)

func lockUser(userID string) *sync.Mutex {
	userLocksMu.Lock()
	defer userLocksMu.Unlock()

	lock, ok := userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		userLocks[userID] = lock
	}
	return lock
}

// GetUser retrieves a user by id
func GetUser(userID string) (*models.User, error) {
	var user models.User
	result := database.DB.Where("id = ?", userID).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Unavailable("user read failed", result.Error.Error())
	}
	return &user, nil
}

// CreateUser inserts a new user with zeroed counters.
func CreateUser(username, name, role string) (*models.User, error) {
	if role == "" {
		role = "student"
	}
	user := &models.User{
		ID:       uuid.NewString(),
		Username: username,
		Name:     name,
		Role:     role,
		Level:    1,
	}
	if err := database.DB.Create(user).Error; err != nil {
		return nil, apperrors.Conflict("username already taken")
	}
	return user, nil
}

// ListUsers returns every user, for the teacher dashboard.
func ListUsers() ([]*models.User, error) {
	var users []*models.User
	result := database.DB.Order("total_xp DESC").Find(&users)
	if result.Error != nil {
		return nil, apperrors.Unavailable("user list failed", result.Error.Error())
	}
	return users, nil
}

// AwardCompletion applies the one-per-completion stat mutation: TotalXP
// grows by amount, Level is recomputed from the new total, Badges gains
// one, and the daily streak advances. Serialized per user and executed
// with an atomic SQL increment.
func AwardCompletion(userID string, amount int, source, reason string) (*models.User, error) {
	lock := lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	user, err := GetUser(userID)
	if err != nil {
		return nil, err
	}

	streak, err := advanceStreak(userID)
	if err != nil {
		return nil, err
	}

	newTotal := user.TotalXP + amount
	updates := map[string]interface{}{
		"total_xp": gorm.Expr("total_xp + ?", amount),
		"level":    models.LevelForXP(newTotal),
		"badges":   gorm.Expr("badges + 1"),
		"streak":   streak,
	}
	result := database.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return nil, apperrors.Unavailable("xp award failed", result.Error.Error())
	}

	log := &models.XPLog{
		UserID: userID,
		Amount: amount,
		Source: source,
		Reason: reason,
	}
	database.DB.Create(log)

	return GetUser(userID)
}

// advanceStreak bumps the consecutive-day counter: same-day activity is a
// no-op, next-day activity extends the streak, anything older restarts it.
func advanceStreak(userID string) (int, error) {
	var ledger models.StreakLedger
	result := database.DB.Where("user_id = ?", userID).First(&ledger)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, apperrors.Unavailable("streak read failed", result.Error.Error())
		}
		ledger = models.StreakLedger{UserID: userID}
	}

	today := time.Now().Truncate(24 * time.Hour)
	lastDate := ledger.LastActivityDate.Truncate(24 * time.Hour)

	switch {
	case ledger.LastActivityDate.IsZero() || lastDate.Before(today.AddDate(0, 0, -1)):
		ledger.CurrentStreak = 1
	case lastDate.Equal(today.AddDate(0, 0, -1)):
		ledger.CurrentStreak++
	case lastDate.Equal(today):
		// Already counted today.
	}

	if ledger.CurrentStreak > ledger.LongestStreak {
		ledger.LongestStreak = ledger.CurrentStreak
	}
	ledger.LastActivityDate = time.Now()

	if err := database.DB.Save(&ledger).Error; err != nil {
		return 0, apperrors.Unavailable("streak write failed", err.Error())
	}
	return ledger.CurrentStreak, nil
}
