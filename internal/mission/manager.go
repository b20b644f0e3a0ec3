package mission

import (
	"sync"

	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	contentservices "github.com/sarathi/sarathi/internal/content/services"
)

// Manager holds the live sessions, one per user x mission. Sessions are
// created on start, resumed from the progress store when a record exists,
// and kept in memory until the process exits.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	coord    *Coordinator
}

func NewManager(coord *Coordinator) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		coord:    coord,
	}
}

func sessionKey(userID, missionID string) string {
	return userID + ":" + missionID
}

// Start creates or resumes a session for the mission. An existing live
// session is returned as-is; otherwise the stored progress record (if
// any) seeds the new one.
func (m *Manager) Start(userID, missionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(userID, missionID)
	if s, ok := m.sessions[key]; ok {
		return s, nil
	}

	mission, err := contentservices.LoadMission(missionID)
	if err != nil {
		return nil, err
	}

	record, err := m.coord.store.Get(userID, missionID)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	s := NewSession(userID, mission, record)
	m.sessions[key] = s
	return s, nil
}

// Get returns the live session or a NotFound error when none was started.
func (m *Manager) Get(userID, missionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionKey(userID, missionID)]; ok {
		return s, nil
	}
	return nil, apperrors.NotFound("session")
}

// Drop removes a live session, forcing the next Start to resume from the
// stored record. Used after completion so a finished run does not pin
// memory.
func (m *Manager) Drop(userID, missionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey(userID, missionID))
}
