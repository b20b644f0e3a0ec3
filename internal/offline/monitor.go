package offline

import (
	"sync"

	"github.com/sarathi/sarathi/pkg/logger"
)

// Monitor tracks connectivity as reported by the outside world. The queue
// only cares about the offline-to-online transition, which triggers a flush.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   []chan struct{}
}

// NewMonitor starts in the online state.
func NewMonitor() *Monitor {
	return &Monitor{online: true}
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOffline records a lost connection.
func (m *Monitor) SetOffline() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online {
		m.online = false
		logger.Warn("connection lost, completions will queue locally")
	}
}

// SetOnline records a restored connection and notifies subscribers.
// Repeated calls while already online do not notify.
func (m *Monitor) SetOnline() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online {
		return
	}
	m.online = true
	logger.Info("connection restored")

	for _, sub := range m.subs {
		select {
		case sub <- struct{}{}:
		default:
		}
	}
}

// Subscribe returns a channel that receives a tick on each
// offline-to-online transition.
func (m *Monitor) Subscribe() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := make(chan struct{}, 1)
	m.subs = append(m.subs, sub)
	return sub
}
