package offline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTarget fails the first failures deliveries, then succeeds,
// recording the order payloads arrive in.
type scriptedTarget struct {
	failures int
	applied  []string
}

func (s *scriptedTarget) Apply(ctx context.Context, payload PendingSync) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("store unreachable")
	}
	s.applied = append(s.applied, payload.MissionID)
	return nil
}

func newQueueAt(t *testing.T, maxAttempts int) (*Queue, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pending.json")
	q, err := NewQueue(path, maxAttempts)
	require.NoError(t, err)
	return q, path
}

func TestFlushDeliversAllItemsInOrder(t *testing.T) {
	q, _ := newQueueAt(t, 3)

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, q.Enqueue(PendingSync{UserID: "u1", MissionID: id, XPEarned: 500}))
	}

	target := &scriptedTarget{}
	delivered, err := q.Flush(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, 3, delivered)
	assert.Equal(t, []string{"first", "second", "third"}, target.applied)
	assert.Empty(t, q.Pending())
}

func TestFailedItemIsRescheduledWithBackoff(t *testing.T) {
	q, _ := newQueueAt(t, 5)
	clock := time.Now()
	q.now = func() time.Time { return clock }

	require.NoError(t, q.Enqueue(PendingSync{UserID: "u1", MissionID: "m1"}))

	target := &scriptedTarget{failures: 1}
	delivered, err := q.Flush(context.Background(), target)
	require.NoError(t, err)
	assert.Zero(t, delivered)

	pending := q.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, clock.Add(time.Second), pending[0].NextAttempt)

	// Not due yet: the item is skipped, not retried.
	delivered, err = q.Flush(context.Background(), target)
	require.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Empty(t, target.applied)

	// Past the backoff window the retry goes through.
	clock = clock.Add(2 * time.Second)
	delivered, err = q.Flush(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, []string{"m1"}, target.applied)
}

func TestBackoffDoubling(t *testing.T) {
	assert.Equal(t, time.Second, backoff(1))
	assert.Equal(t, 2*time.Second, backoff(2))
	assert.Equal(t, 8*time.Second, backoff(4))
	assert.Equal(t, backoffCap, backoff(30))
}

func TestExhaustedItemMovesToDeadLetter(t *testing.T) {
	q, _ := newQueueAt(t, 2)
	clock := time.Now()
	q.now = func() time.Time { return clock }

	require.NoError(t, q.Enqueue(PendingSync{UserID: "u1", MissionID: "m1"}))

	target := &scriptedTarget{failures: 10}
	for i := 0; i < 2; i++ {
		_, err := q.Flush(context.Background(), target)
		require.NoError(t, err)
		clock = clock.Add(time.Minute)
	}

	assert.Empty(t, q.Pending())
	dead := q.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, "m1", dead[0].MissionID)
	assert.Equal(t, 2, dead[0].Attempts)

	// Dead letters stay dead: another flush delivers nothing.
	delivered, err := q.Flush(context.Background(), target)
	require.NoError(t, err)
	assert.Zero(t, delivered)
}

func TestQueueSurvivesRestart(t *testing.T) {
	q, path := newQueueAt(t, 3)
	require.NoError(t, q.Enqueue(PendingSync{UserID: "u1", MissionID: "m1", Score: 66, XPEarned: 500}))

	reopened, err := NewQueue(path, 3)
	require.NoError(t, err)

	pending := reopened.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "m1", pending[0].MissionID)
	assert.Equal(t, 66, pending[0].Score)
	assert.Equal(t, 500, pending[0].XPEarned)
}

func TestCorruptQueueFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	q, err := NewQueue(path, 3)
	require.NoError(t, err)
	assert.Empty(t, q.Pending())

	// The broken file is kept aside for inspection.
	_, err = os.Stat(path + ".corrupt")
	assert.NoError(t, err)
}

func TestMonitorNotifiesOnlyOnOfflineToOnline(t *testing.T) {
	m := NewMonitor()
	sub := m.Subscribe()

	// Already online: no tick.
	m.SetOnline()
	select {
	case <-sub:
		t.Fatal("unexpected notification while already online")
	default:
	}

	m.SetOffline()
	assert.False(t, m.Online())

	m.SetOnline()
	assert.True(t, m.Online())
	select {
	case <-sub:
	case <-time.After(time.Second):
		t.Fatal("expected notification on reconnect")
	}
}
