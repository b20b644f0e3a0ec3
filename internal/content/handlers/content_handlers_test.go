package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sarathi/sarathi/internal/common/database"
	"github.com/sarathi/sarathi/internal/content/models"
	"github.com/sarathi/sarathi/internal/content/repository"
	"github.com/sarathi/sarathi/internal/content/services"
)

var dbSeq int

func setupContentDB(t *testing.T) {
	t.Helper()

	dbSeq++
	dsn := fmt.Sprintf("file:content_handlers_%d?mode=memory&cache=shared", dbSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Mission{}))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
}

func setupContentRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/api/missions", ListMissions)
	router.GET("/api/mission/:id", GetMission)
	return router
}

const catalogJSON = `[
	{
		"id": "water-purifier",
		"title": "Build a Water Purifier",
		"xp_reward": 500,
		"schema_version": 2,
		"content": {
			"learn_cards": [{"title": "Card", "body": "Body"}],
			"quiz_questions": [{"prompt": "Q", "options": ["a", "b"], "correct_index": 1}]
		}
	}
]`

func seedTestCatalog(t *testing.T) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o644))

	seeded, err := services.SeedCatalog(path)
	require.NoError(t, err)
	require.Equal(t, 1, seeded)
}

func TestGetMissionDecodesContent(t *testing.T) {
	setupContentDB(t)
	seedTestCatalog(t)
	router := setupContentRouter(t)

	req, _ := http.NewRequest("GET", "/api/mission/water-purifier", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var detail models.MissionDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "water-purifier", detail.ID)
	assert.Equal(t, 500, detail.XPReward)
	require.NotNil(t, detail.Content)
	assert.Len(t, detail.Content.LearnCards, 1)
	assert.Len(t, detail.Content.QuizQuestions, 1)
}

func TestGetMissionNotFound(t *testing.T) {
	setupContentDB(t)
	router := setupContentRouter(t)

	req, _ := http.NewRequest("GET", "/api/mission/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMissionMigratesLegacyRow(t *testing.T) {
	setupContentDB(t)
	router := setupContentRouter(t)

	// A pre-seeding database row in the old treasure shape.
	require.NoError(t, repository.UpsertMission(&models.Mission{
		ID:            "water-cycle",
		Title:         "Journey of a Raindrop",
		XPReward:      500,
		SchemaVersion: models.SchemaVersionTreasure,
		Content:       `{"clueTrail": [{"lessonId": 1, "title": "Evaporation", "content": "Sun heats the sea.", "clue": {"name": "Sun Shard", "description": "Warm light", "emoji": "x"}}]}`,
		IsActive:      true,
	}))

	req, _ := http.NewRequest("GET", "/api/mission/water-cycle", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var detail models.MissionDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	// Responses always carry the current schema version.
	assert.Equal(t, models.SchemaVersionMission, detail.SchemaVersion)
	require.Len(t, detail.Content.LearnCards, 1)
	assert.Contains(t, detail.Content.LearnCards[0].Body, "Sun Shard")
}

func TestListMissionsSummaries(t *testing.T) {
	setupContentDB(t)
	seedTestCatalog(t)
	router := setupContentRouter(t)

	req, _ := http.NewRequest("GET", "/api/missions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Missions []models.MissionSummary `json:"missions"`
		Total    int                     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Missions, 1)
	assert.Equal(t, 1, body.Missions[0].Questions)
	assert.False(t, body.Missions[0].HasPuzzle)
}

func TestListMissionsSkipsUndecodableRows(t *testing.T) {
	setupContentDB(t)
	seedTestCatalog(t)
	router := setupContentRouter(t)

	require.NoError(t, repository.UpsertMission(&models.Mission{
		ID:            "broken",
		Title:         "Broken",
		SchemaVersion: 9,
		Content:       `{}`,
		IsActive:      true,
	}))

	req, _ := http.NewRequest("GET", "/api/missions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
}

func TestSeedCatalogRejectsInvalidEntries(t *testing.T) {
	setupContentDB(t)

	path := filepath.Join(t.TempDir(), "catalog.json")
	bad := `[{"id": "m", "title": "M", "content": {"learn_cards": []}}]`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	_, err := services.SeedCatalog(path)
	assert.Error(t, err)
}
