package handlers

import (
	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	"github.com/sarathi/sarathi/internal/common/middleware"
	"github.com/sarathi/sarathi/internal/mission"
	progressmodels "github.com/sarathi/sarathi/internal/progress/models"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the mission phase machine over REST. Every route
// is scoped to the authenticated user; the mission id comes from the path.
type SessionHandler struct {
	manager *mission.Manager
	coord   *mission.Coordinator
}

func NewSessionHandler(manager *mission.Manager, coord *mission.Coordinator) *SessionHandler {
	return &SessionHandler{manager: manager, coord: coord}
}

type answerRequest struct {
	Question int `json:"question" binding:"min=0"`
	Option   int `json:"option" binding:"min=0"`
}

type placeRequest struct {
	SlotID string `json:"slot_id" binding:"required"`
	Token  string `json:"token" binding:"required"`
}

type connectorRequest struct {
	Key  string `json:"key" binding:"required"`
	Text string `json:"text"`
}

// sessionState is the wire shape of a live session.
type sessionState struct {
	MissionID     string      `json:"mission_id"`
	Phase         string      `json:"phase"`
	CardIndex     int         `json:"card_index"`
	CardCount     int         `json:"card_count"`
	QuestionIndex int         `json:"question_index"`
	QuestionCount int         `json:"question_count"`
	IsPuzzle      bool        `json:"is_puzzle"`
	Answers       map[int]int `json:"answers"`
	CanComplete   bool        `json:"can_complete"`
	Score         int         `json:"score"`
	XPEarned      int         `json:"xp_earned"`
}

func stateOf(s *mission.Session) sessionState {
	return sessionState{
		MissionID:     s.Mission.ID,
		Phase:         s.Phase(),
		CardIndex:     s.CardIndex(),
		CardCount:     len(s.Mission.Content.LearnCards),
		QuestionIndex: s.QuestionIndex(),
		QuestionCount: s.Mission.QuestionCount(),
		IsPuzzle:      s.Mission.IsPuzzle(),
		Answers:       s.Answers(),
		CanComplete:   s.CanComplete(),
		Score:         s.Score(),
		XPEarned:      s.XPEarned(),
	}
}

// Start creates or resumes the user's session for a mission.
// POST /api/session/:missionId/start
func (h *SessionHandler) Start(c *gin.Context) {
	userID := middleware.UserID(c)
	missionID := c.Param("missionId")

	s, err := h.manager.Start(userID, missionID)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	if s.Phase() == progressmodels.PhaseLearn {
		h.coord.SavePhase(s, missionID)
	}
	c.JSON(200, stateOf(s))
}

// GetState returns the live session.
// GET /api/session/:missionId
func (h *SessionHandler) GetState(c *gin.Context) {
	s, err := h.manager.Get(middleware.UserID(c), c.Param("missionId"))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(200, stateOf(s))
}

// Next advances the session within its phase (or into the next one).
// POST /api/session/:missionId/next
func (h *SessionHandler) Next(c *gin.Context) {
	h.mutate(c, func(s *mission.Session) error { return s.Next() })
}

// Previous steps back within the current phase.
// POST /api/session/:missionId/previous
func (h *SessionHandler) Previous(c *gin.Context) {
	h.mutate(c, func(s *mission.Session) error { return s.Previous() })
}

// PlayComplete is the interaction-finished signal from the Play phase.
// POST /api/session/:missionId/play-complete
func (h *SessionHandler) PlayComplete(c *gin.Context) {
	h.mutate(c, func(s *mission.Session) error { return s.InteractionComplete() })
}

// Answer records a quiz answer.
// POST /api/session/:missionId/answer
func (h *SessionHandler) Answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, apperrors.Validation("malformed answer payload", err.Error()))
		return
	}
	h.mutate(c, func(s *mission.Session) error {
		return s.SelectAnswer(req.Question, req.Option)
	})
}

// Place drops a token on a puzzle slot. The response reports whether the
// placement stuck; a wrong token is not an error.
// POST /api/session/:missionId/place
func (h *SessionHandler) Place(c *gin.Context) {
	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, apperrors.Validation("malformed placement payload", err.Error()))
		return
	}

	missionID := c.Param("missionId")
	s, err := h.manager.Get(middleware.UserID(c), missionID)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	placed, err := s.PlaceToken(req.SlotID, req.Token)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	if placed {
		h.coord.SavePhase(s, missionID)
	}

	c.JSON(200, gin.H{"placed": placed, "state": stateOf(s)})
}

// Connector records free text for a puzzle connector field.
// POST /api/session/:missionId/connector
func (h *SessionHandler) Connector(c *gin.Context) {
	var req connectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, apperrors.Validation("malformed connector payload", err.Error()))
		return
	}
	h.mutate(c, func(s *mission.Session) error {
		return s.FillConnector(req.Key, req.Text)
	})
}

// Reset clears the Conquer working state.
// POST /api/session/:missionId/reset
func (h *SessionHandler) Reset(c *gin.Context) {
	h.mutate(c, func(s *mission.Session) error { return s.Reset() })
}

// Complete scores the Conquer phase, persists the completed record, and
// grants XP. Store failures degrade to the offline queue; the response's
// "queued" flag tells the client the reward will land on the next sync.
// POST /api/session/:missionId/complete
func (h *SessionHandler) Complete(c *gin.Context) {
	userID := middleware.UserID(c)
	missionID := c.Param("missionId")

	s, err := h.manager.Get(userID, missionID)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	comp, err := h.coord.CompleteSession(s, missionID)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(200, gin.H{"completion": comp, "state": stateOf(s)})
}

// mutate runs one session operation and persists the resulting phase.
func (h *SessionHandler) mutate(c *gin.Context, op func(*mission.Session) error) {
	missionID := c.Param("missionId")
	s, err := h.manager.Get(middleware.UserID(c), missionID)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	if err := op(s); err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	h.coord.SavePhase(s, missionID)
	c.JSON(200, stateOf(s))
}
