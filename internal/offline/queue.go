package offline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sarathi/sarathi/pkg/logger"
	"go.uber.org/zap"
)

// PendingSync is one mission-completion payload awaiting delivery to the
// progress store.
type PendingSync struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	MissionID   string    `json:"mission_id"`
	Score       int       `json:"score"`
	XPEarned    int       `json:"xp_earned"`
	Attempts    int       `json:"attempts"`
	NextAttempt time.Time `json:"next_attempt"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// Target replays a pending payload against the progress store. Apply must
// be idempotent: re-delivering an already-applied payload awards nothing.
type Target interface {
	Apply(ctx context.Context, payload PendingSync) error
}

const (
	backoffBase = time.Second
	backoffCap  = 5 * time.Minute
)

// Queue is a durable, ordered queue of completion payloads. Every
// completion is retained until delivered or dead-lettered; items are
// flushed and removed independently with exponential backoff.
type Queue struct {
	mu          sync.Mutex
	path        string
	maxAttempts int
	items       []PendingSync
	dead        []PendingSync
	now         func() time.Time
}

// queueFile is the on-disk layout at the well-known path.
type queueFile struct {
	Items []PendingSync `json:"items"`
	Dead  []PendingSync `json:"dead"`
}

// NewQueue opens (or creates) the queue persisted at path.
func NewQueue(path string, maxAttempts int) (*Queue, error) {
	q := &Queue{
		path:        path,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return q, nil
		}
		return nil, err
	}

	var file queueFile
	if err := json.Unmarshal(raw, &file); err != nil {
		// A corrupt queue file should not brick the app; start fresh but
		// keep the broken file aside for inspection.
		logger.Warn("pending sync file unreadable, starting empty", zap.Error(err))
		_ = os.Rename(path, path+".corrupt")
		return q, nil
	}

	q.items = file.Items
	q.dead = file.Dead
	return q, nil
}

// Enqueue appends a completion payload and persists the queue.
func (q *Queue) Enqueue(payload PendingSync) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}
	payload.Attempts = 0
	payload.NextAttempt = q.now()
	payload.EnqueuedAt = q.now()

	q.items = append(q.items, payload)
	return q.persist()
}

// Flush attempts delivery of every due item in order. Successful items are
// removed; failed items are rescheduled with exponential backoff, and items
// that exhaust maxAttempts move to the dead-letter list. Returns the number
// of payloads delivered.
func (q *Queue) Flush(ctx context.Context, target Target) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delivered := 0
	remaining := q.items[:0]
	now := q.now()

	for _, item := range q.items {
		if ctx.Err() != nil {
			remaining = append(remaining, item)
			continue
		}
		if item.NextAttempt.After(now) {
			remaining = append(remaining, item)
			continue
		}

		if err := target.Apply(ctx, item); err != nil {
			item.Attempts++
			if item.Attempts >= q.maxAttempts {
				logger.Error("completion payload dead-lettered",
					zap.String("user_id", item.UserID),
					zap.String("mission_id", item.MissionID),
					zap.Int("attempts", item.Attempts))
				q.dead = append(q.dead, item)
				continue
			}
			item.NextAttempt = now.Add(backoff(item.Attempts))
			remaining = append(remaining, item)
			continue
		}

		delivered++
	}

	q.items = remaining
	if err := q.persist(); err != nil {
		return delivered, err
	}
	return delivered, ctx.Err()
}

// Pending returns a snapshot of the undelivered payloads.
func (q *Queue) Pending() []PendingSync {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := make([]PendingSync, len(q.items))
	copy(snapshot, q.items)
	return snapshot
}

// DeadLetters returns a snapshot of payloads that exhausted their retries.
func (q *Queue) DeadLetters() []PendingSync {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := make([]PendingSync, len(q.dead))
	copy(snapshot, q.dead)
	return snapshot
}

func (q *Queue) persist() error {
	file := queueFile{Items: q.items, Dead: q.dead}
	raw, err := json.Marshal(file)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(q.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, q.path)
}

func backoff(attempts int) time.Duration {
	d := backoffBase << (attempts - 1)
	if d > backoffCap || d <= 0 {
		return backoffCap
	}
	return d
}
