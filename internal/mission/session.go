package mission

import (
	"fmt"
	"strings"

	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	contentmodels "github.com/sarathi/sarathi/internal/content/models"
	progressmodels "github.com/sarathi/sarathi/internal/progress/models"
)

// PerfectScoreBonus is granted on top of the mission's base XP reward when
// the Conquer score is exactly 100.
const PerfectScoreBonus = 100

// Session drives one user's run of one mission through the
// Learn -> Play -> Conquer -> Completed loop. A session is owned by a
// single caller (the active UI session) and is not safe for concurrent
// mutation.
type Session struct {
	UserID  string
	Mission *contentmodels.MissionDetail

	phase         string
	cardIndex     int
	questionIndex int
	answers       map[int]int
	feedbackShown map[int]bool
	placements    map[string]string // slot id -> placed token
	connectors    map[string]string // connection key -> free text
	scorePct      int
	xpEarned      int
}

// Completion is the result of a successful Complete call.
type Completion struct {
	ScorePct         int         `json:"score_pct"`
	XPEarned         int         `json:"xp_earned"`
	Answers          map[int]int `json:"answers,omitempty"`
	AlreadyCompleted bool        `json:"already_completed"`
	Queued           bool        `json:"queued"`
}

// NewSession builds a session for a mission, resuming from a stored
// progress record when one exists. A record that is already completed
// short-circuits straight to the terminal phase; the XP side effect never
// re-runs for it.
func NewSession(userID string, mission *contentmodels.MissionDetail, record *progressmodels.ProgressRecord) *Session {
	s := &Session{
		UserID:        userID,
		Mission:       mission,
		phase:         progressmodels.PhaseLearn,
		answers:       make(map[int]int),
		feedbackShown: make(map[int]bool),
		placements:    make(map[string]string),
		connectors:    make(map[string]string),
	}

	if record == nil {
		return s
	}

	if record.Completed {
		s.phase = progressmodels.PhaseCompleted
		if record.Score != nil {
			s.scorePct = *record.Score
		}
		return s
	}

	if progressmodels.ValidPhase(record.Phase) {
		s.phase = record.Phase
	}
	for q, opt := range record.AnswerMap() {
		s.answers[q] = opt
		s.feedbackShown[q] = true
	}
	return s
}

// Phase returns the current phase name.
func (s *Session) Phase() string { return s.phase }

// CardIndex returns the current Learn card position.
func (s *Session) CardIndex() int { return s.cardIndex }

// QuestionIndex returns the current Conquer question position.
func (s *Session) QuestionIndex() int { return s.questionIndex }

// Score returns the final score percentage; zero before completion.
func (s *Session) Score() int { return s.scorePct }

// XPEarned returns the XP granted by this session's completion; zero for
// resumed already-completed sessions.
func (s *Session) XPEarned() int { return s.xpEarned }

// Answers returns a copy of the recorded quiz answers.
func (s *Session) Answers() map[int]int {
	copied := make(map[int]int, len(s.answers))
	for q, opt := range s.answers {
		copied[q] = opt
	}
	return copied
}

// Next advances within the current phase. At the last Learn card it
// transitions to Play; in Conquer it clamps at the last question.
func (s *Session) Next() error {
	switch s.phase {
	case progressmodels.PhaseLearn:
		if s.cardIndex < len(s.Mission.Content.LearnCards)-1 {
			s.cardIndex++
			return nil
		}
		s.phase = progressmodels.PhasePlay
		return nil

	case progressmodels.PhaseConquer:
		if s.questionIndex < s.Mission.QuestionCount()-1 {
			s.questionIndex++
		}
		return nil
	}

	return apperrors.BadRequest("no next step in phase " + s.phase)
}

// Previous steps back within the current phase, flooring at the first
// card or question. It never leaves the phase.
func (s *Session) Previous() error {
	switch s.phase {
	case progressmodels.PhaseLearn:
		if s.cardIndex > 0 {
			s.cardIndex--
		}
		return nil

	case progressmodels.PhaseConquer:
		if s.questionIndex > 0 {
			s.questionIndex--
		}
		return nil
	}

	return apperrors.BadRequest("no previous step in phase " + s.phase)
}

// InteractionComplete is the opaque signal from the Play collaborator.
// How it was produced (timer, click, simulation) is not this machine's
// concern; it fires once per Play entry and moves the run to Conquer.
func (s *Session) InteractionComplete() error {
	if s.phase != progressmodels.PhasePlay {
		return apperrors.BadRequest("interaction signal outside play phase")
	}
	s.phase = progressmodels.PhaseConquer
	return nil
}

// SelectAnswer records the chosen option for a quiz question, overwriting
// any prior answer and revealing the feedback for that question.
func (s *Session) SelectAnswer(questionIndex, optionIndex int) error {
	if s.phase != progressmodels.PhaseConquer {
		return apperrors.BadRequest("answers are only accepted in the conquer phase")
	}
	if s.Mission.IsPuzzle() {
		return apperrors.BadRequest("this mission uses a puzzle, not a quiz")
	}

	questions := s.Mission.Content.QuizQuestions
	if questionIndex < 0 || questionIndex >= len(questions) {
		return apperrors.BadRequest(fmt.Sprintf("question index %d out of range", questionIndex))
	}
	if optionIndex < 0 || optionIndex >= len(questions[questionIndex].Options) {
		return apperrors.BadRequest(fmt.Sprintf("option index %d out of range", optionIndex))
	}

	s.answers[questionIndex] = optionIndex
	s.feedbackShown[questionIndex] = true
	return nil
}

// FeedbackShown reports whether the explanation is visible for a question.
func (s *Session) FeedbackShown(questionIndex int) bool {
	return s.feedbackShown[questionIndex]
}

// PlaceToken attempts to drop a token on a puzzle slot. A wrong token is
// rejected with no state change and no penalty; the return value tells the
// caller whether the placement stuck.
func (s *Session) PlaceToken(slotID, token string) (bool, error) {
	if s.phase != progressmodels.PhaseConquer {
		return false, apperrors.BadRequest("placements are only accepted in the conquer phase")
	}
	if !s.Mission.IsPuzzle() {
		return false, apperrors.BadRequest("this mission uses a quiz, not a puzzle")
	}

	slot := s.findSlot(slotID)
	if slot == nil {
		return false, apperrors.BadRequest("unknown puzzle slot " + slotID)
	}

	if token != slot.RequiredToken {
		return false, nil
	}

	s.placements[slotID] = token
	return true, nil
}

// FillConnector records free text for a puzzle connector field. Content
// is never validated here; connector correctness only affects the score.
func (s *Session) FillConnector(key, text string) error {
	if s.phase != progressmodels.PhaseConquer {
		return apperrors.BadRequest("connectors are only accepted in the conquer phase")
	}
	if !s.Mission.IsPuzzle() {
		return apperrors.BadRequest("this mission uses a quiz, not a puzzle")
	}
	if s.findConnection(key) == nil {
		return apperrors.BadRequest("unknown puzzle connector " + key)
	}

	s.connectors[key] = text
	return nil
}

// CanComplete reports whether Complete is currently admissible: every quiz
// question answered, or every puzzle slot filled. Puzzle connectors are
// never part of the gate.
func (s *Session) CanComplete() bool {
	if s.phase != progressmodels.PhaseConquer {
		return false
	}

	if s.Mission.IsPuzzle() {
		for _, slot := range s.Mission.Content.Puzzle.Slots {
			if _, ok := s.placements[slot.SlotID]; !ok {
				return false
			}
		}
		return true
	}

	for i := range s.Mission.Content.QuizQuestions {
		if _, ok := s.answers[i]; !ok {
			return false
		}
	}
	return true
}

// Complete scores the Conquer phase and moves the session to the terminal
// Completed phase. Calling it on an already-completed session returns the
// existing result and must never re-run reward side effects.
func (s *Session) Complete() (*Completion, error) {
	if s.phase == progressmodels.PhaseCompleted {
		return &Completion{
			ScorePct:         s.scorePct,
			XPEarned:         0,
			AlreadyCompleted: true,
		}, nil
	}
	if s.phase != progressmodels.PhaseConquer {
		return nil, apperrors.BadRequest("completion requires the conquer phase")
	}
	if !s.CanComplete() {
		if s.Mission.IsPuzzle() {
			return nil, apperrors.BadRequest("all puzzle slots must be filled before completing")
		}
		return nil, apperrors.BadRequest("all questions must be answered before completing")
	}

	if s.Mission.IsPuzzle() {
		s.scorePct = s.connectorScore()
	} else {
		s.scorePct = s.quizScore()
	}

	s.xpEarned = s.Mission.XPReward
	if s.scorePct == 100 {
		s.xpEarned += PerfectScoreBonus
	}
	s.phase = progressmodels.PhaseCompleted

	return &Completion{
		ScorePct: s.scorePct,
		XPEarned: s.xpEarned,
		Answers:  s.Answers(),
	}, nil
}

// Reset clears the Conquer working state without touching the stored
// progress record. Only allowed while still in Conquer.
func (s *Session) Reset() error {
	if s.phase != progressmodels.PhaseConquer {
		return apperrors.BadRequest("reset is only allowed in the conquer phase")
	}

	s.questionIndex = 0
	s.answers = make(map[int]int)
	s.feedbackShown = make(map[int]bool)
	s.placements = make(map[string]string)
	s.connectors = make(map[string]string)
	return nil
}

// quizScore counts exact matches against the correct indexes. Integer
// division: 2 of 3 correct scores 66.
func (s *Session) quizScore() int {
	questions := s.Mission.Content.QuizQuestions
	if len(questions) == 0 {
		return 100
	}

	correct := 0
	for i, q := range questions {
		if answer, ok := s.answers[i]; ok && answer == q.CorrectIndex {
			correct++
		}
	}
	return correct * 100 / len(questions)
}

// connectorScore grades the free-text connector fields case-insensitively
// against each key's accepted answers. Slots are already guaranteed
// correct by the completion gate, so only connectors affect the score.
func (s *Session) connectorScore() int {
	connections := s.Mission.Content.Puzzle.Connections
	if len(connections) == 0 {
		return 100
	}

	correct := 0
	for _, conn := range connections {
		text := strings.TrimSpace(s.connectors[conn.Key])
		for _, accepted := range conn.Accepted {
			if strings.EqualFold(text, accepted) {
				correct++
				break
			}
		}
	}
	return correct * 100 / len(connections)
}

// LearnProgressPct is the viewed share of learn cards, 0..100.
func (s *Session) LearnProgressPct() int {
	total := len(s.Mission.Content.LearnCards)
	if total == 0 || s.phase != progressmodels.PhaseLearn {
		return 100
	}
	return (s.cardIndex + 1) * 100 / total
}

// ConquerProgressPct is the answered share of questions or filled share
// of slots, 0..100.
func (s *Session) ConquerProgressPct() int {
	if s.phase == progressmodels.PhaseCompleted {
		return 100
	}
	if s.phase != progressmodels.PhaseConquer {
		return 0
	}

	if s.Mission.IsPuzzle() {
		total := len(s.Mission.Content.Puzzle.Slots)
		if total == 0 {
			return 100
		}
		return len(s.placements) * 100 / total
	}

	total := s.Mission.QuestionCount()
	if total == 0 {
		return 100
	}
	return len(s.answers) * 100 / total
}

func (s *Session) findSlot(slotID string) *contentmodels.PuzzleSlot {
	for i := range s.Mission.Content.Puzzle.Slots {
		if s.Mission.Content.Puzzle.Slots[i].SlotID == slotID {
			return &s.Mission.Content.Puzzle.Slots[i]
		}
	}
	return nil
}

func (s *Session) findConnection(key string) *contentmodels.PuzzleConnection {
	for i := range s.Mission.Content.Puzzle.Connections {
		if s.Mission.Content.Puzzle.Connections[i].Key == key {
			return &s.Mission.Content.Puzzle.Connections[i]
		}
	}
	return nil
}
