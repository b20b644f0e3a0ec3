package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	"github.com/sarathi/sarathi/internal/progress/models"
)

var storeSeq int

func newTestGormStore(t *testing.T) Store {
	t.Helper()

	storeSeq++
	dsn := fmt.Sprintf("file:progress_store_%d?mode=memory&cache=shared", storeSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ProgressRecord{}))

	return NewGormStore(db)
}

// Both backends must enforce identical semantics.
func eachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("gorm", func(t *testing.T) { fn(t, newTestGormStore(t)) })
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }

func TestGetMissingRecordIsNotFound(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		record, err := store.Get("u1", "m1")
		assert.Nil(t, record)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestUpsertCreatesWithLearnDefaults(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		record, err := store.Upsert(models.ProgressWrite{UserID: "u1", MissionID: "m1"})
		require.NoError(t, err)

		assert.Equal(t, models.PhaseLearn, record.Phase)
		assert.Zero(t, record.LearnProgress)
		assert.False(t, record.Completed)
		assert.Nil(t, record.CompletedAt)
		assert.NotEmpty(t, record.ID)
	})
}

func TestUpsertMergesPartialWrites(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		_, err := store.Upsert(models.ProgressWrite{
			UserID:        "u1",
			MissionID:     "m1",
			Phase:         strPtr(models.PhasePlay),
			LearnProgress: intPtr(100),
		})
		require.NoError(t, err)

		// A later write that only touches the phase keeps learn progress.
		record, err := store.Upsert(models.ProgressWrite{
			UserID:    "u1",
			MissionID: "m1",
			Phase:     strPtr(models.PhaseConquer),
			Answers:   map[int]int{0: 2},
		})
		require.NoError(t, err)

		assert.Equal(t, models.PhaseConquer, record.Phase)
		assert.Equal(t, 100, record.LearnProgress)
		assert.Equal(t, map[int]int{0: 2}, record.AnswerMap())

		stored, err := store.Get("u1", "m1")
		require.NoError(t, err)
		assert.Equal(t, record.ID, stored.ID)
		assert.Equal(t, models.PhaseConquer, stored.Phase)
	})
}

func TestUpsertRejectsUnknownPhase(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		_, err := store.Upsert(models.ProgressWrite{
			UserID:    "u1",
			MissionID: "m1",
			Phase:     strPtr("boss-fight"),
		})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestUpsertRejectsOutOfRangeProgress(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		_, err := store.Upsert(models.ProgressWrite{
			UserID:        "u1",
			MissionID:     "m1",
			LearnProgress: intPtr(101),
		})
		assert.True(t, apperrors.IsValidation(err))

		_, err = store.Upsert(models.ProgressWrite{
			UserID:          "u1",
			MissionID:       "m1",
			ConquerProgress: intPtr(-1),
		})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestCompletionWriteNormalizesTriple(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		record, err := store.Upsert(models.ProgressWrite{
			UserID:    "u1",
			MissionID: "m1",
			Score:     intPtr(66),
			Completed: boolPtr(true),
		})
		require.NoError(t, err)

		// Setting completed alone pulls phase and timestamp with it.
		assert.Equal(t, models.PhaseCompleted, record.Phase)
		assert.True(t, record.Completed)
		require.NotNil(t, record.CompletedAt)
		assert.WithinDuration(t, time.Now(), *record.CompletedAt, 5*time.Second)
	})
}

func TestCompletedPhaseWithoutFlagIsRejected(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		_, err := store.Upsert(models.ProgressWrite{
			UserID:    "u1",
			MissionID: "m1",
			Phase:     strPtr(models.PhaseCompleted),
		})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestCompletedRecordCannotBeReopened(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		_, err := store.Upsert(models.ProgressWrite{
			UserID:    "u1",
			MissionID: "m1",
			Score:     intPtr(100),
			Completed: boolPtr(true),
		})
		require.NoError(t, err)

		_, err = store.Upsert(models.ProgressWrite{
			UserID:    "u1",
			MissionID: "m1",
			Phase:     strPtr(models.PhaseLearn),
		})
		assert.True(t, apperrors.IsValidation(err))

		_, err = store.Upsert(models.ProgressWrite{
			UserID:    "u1",
			MissionID: "m1",
			Completed: boolPtr(false),
		})
		assert.True(t, apperrors.IsValidation(err))

		// An idempotent completed re-write is allowed.
		record, err := store.Upsert(models.ProgressWrite{
			UserID:    "u1",
			MissionID: "m1",
			Completed: boolPtr(true),
		})
		require.NoError(t, err)
		assert.True(t, record.Completed)
		require.NotNil(t, record.Score)
		assert.Equal(t, 100, *record.Score)
	})
}

func TestRecordsAreIsolatedPerUserAndMission(t *testing.T) {
	eachStore(t, func(t *testing.T, store Store) {
		_, err := store.Upsert(models.ProgressWrite{UserID: "u1", MissionID: "m1", Phase: strPtr(models.PhasePlay)})
		require.NoError(t, err)
		_, err = store.Upsert(models.ProgressWrite{UserID: "u1", MissionID: "m2", Phase: strPtr(models.PhaseConquer)})
		require.NoError(t, err)
		_, err = store.Upsert(models.ProgressWrite{UserID: "u2", MissionID: "m1"})
		require.NoError(t, err)

		r1, err := store.Get("u1", "m1")
		require.NoError(t, err)
		assert.Equal(t, models.PhasePlay, r1.Phase)

		r2, err := store.Get("u1", "m2")
		require.NoError(t, err)
		assert.Equal(t, models.PhaseConquer, r2.Phase)

		r3, err := store.Get("u2", "m1")
		require.NoError(t, err)
		assert.Equal(t, models.PhaseLearn, r3.Phase)
	})
}
