package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarathi/sarathi/internal/progress/models"
	"github.com/sarathi/sarathi/internal/progress/repository"
	"github.com/sarathi/sarathi/internal/progress/services"
)

// The handler contract is backend-agnostic; MemoryStore keeps these tests
// free of database setup.
func setupProgressRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := NewProgressHandler(services.NewService(repository.NewMemoryStore()))

	router := gin.New()
	router.GET("/api/mission-progress/:userId/:missionId", handler.GetProgress)
	router.POST("/api/mission-progress", handler.UpsertProgress)
	return router
}

func postProgress(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest("POST", "/api/mission-progress", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetProgressUnknownRecordReturnsEmptyObject(t *testing.T) {
	router := setupProgressRouter()

	req, _ := http.NewRequest("GET", "/api/mission-progress/u1/m1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestUpsertThenGetRoundTrip(t *testing.T) {
	router := setupProgressRouter()

	w := postProgress(t, router, `{
		"userId": "u1",
		"missionId": "m1",
		"phase": "conquer",
		"learnProgress": 100,
		"answers": {"0": 2}
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	req, _ := http.NewRequest("GET", "/api/mission-progress/u1/m1", nil)
	get := httptest.NewRecorder()
	router.ServeHTTP(get, req)
	require.Equal(t, http.StatusOK, get.Code)

	var record models.ProgressRecord
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &record))
	assert.Equal(t, models.PhaseConquer, record.Phase)
	assert.Equal(t, 100, record.LearnProgress)
	assert.Equal(t, map[int]int{0: 2}, record.AnswerMap())
}

func TestUpsertRequiresIdentifiers(t *testing.T) {
	router := setupProgressRouter()

	w := postProgress(t, router, `{"phase": "learn"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpsertRejectsInvariantViolations(t *testing.T) {
	router := setupProgressRouter()

	w := postProgress(t, router, `{"userId": "u1", "missionId": "m1", "phase": "completed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postProgress(t, router, `{"userId": "u1", "missionId": "m1", "learnProgress": 150}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpsertCompletedRecordIsFinal(t *testing.T) {
	router := setupProgressRouter()

	w := postProgress(t, router, `{"userId": "u1", "missionId": "m1", "completed": true, "score": 66}`)
	require.Equal(t, http.StatusOK, w.Code)

	// Reopening attempts fail; idempotent re-completion succeeds.
	w = postProgress(t, router, `{"userId": "u1", "missionId": "m1", "phase": "learn"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postProgress(t, router, `{"userId": "u1", "missionId": "m1", "completed": true}`)
	assert.Equal(t, http.StatusOK, w.Code)
}
