package mission

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/sarathi/sarathi/internal/common/errors"
	"github.com/sarathi/sarathi/internal/offline"
	progressmodels "github.com/sarathi/sarathi/internal/progress/models"
	progressrepo "github.com/sarathi/sarathi/internal/progress/repository"
	statsservices "github.com/sarathi/sarathi/internal/stats/services"
	"github.com/sarathi/sarathi/pkg/logger"
)

// RewardSink grants the XP side effect of a mission completion. It must
// only be invoked once per user x mission; the coordinator guards that
// with the stored record's completed flag.
type RewardSink interface {
	ApplyCompletionReward(userID string, xpEarned int, missionID, reason string) error
}

// StatsRewardSink routes rewards to the user stats service.
type StatsRewardSink struct{}

func (StatsRewardSink) ApplyCompletionReward(userID string, xpEarned int, missionID, reason string) error {
	_, err := statsservices.ApplyCompletionReward(userID, xpEarned, missionID, reason)
	return err
}

// Coordinator owns the persistence boundary of the session machine: it
// saves phase transitions, applies completions (record + reward), and
// degrades to the offline queue when the store is unreachable. It also
// implements offline.Target so queued completions replay through the
// same idempotent path.
type Coordinator struct {
	store   progressrepo.Store
	rewards RewardSink
	queue   *offline.Queue
}

func NewCoordinator(store progressrepo.Store, rewards RewardSink, queue *offline.Queue) *Coordinator {
	return &Coordinator{store: store, rewards: rewards, queue: queue}
}

// SavePhase persists the session's current phase and per-phase progress.
// Transitions are local-first: a store failure is logged and swallowed so
// the in-memory session keeps moving.
func (c *Coordinator) SavePhase(s *Session, missionID string) {
	phase := s.Phase()
	if phase == progressmodels.PhaseCompleted {
		// Completion is persisted by CompleteSession, with the reward.
		return
	}

	learnPct := s.LearnProgressPct()
	conquerPct := s.ConquerProgressPct()
	write := progressmodels.ProgressWrite{
		UserID:          s.UserID,
		MissionID:       missionID,
		Phase:           &phase,
		LearnProgress:   &learnPct,
		ConquerProgress: &conquerPct,
	}
	if answers := s.Answers(); len(answers) > 0 {
		write.Answers = answers
	}

	if _, err := c.store.Upsert(write); err != nil {
		logger.Warn("phase save failed, keeping local state",
			zap.String("user_id", s.UserID),
			zap.String("mission_id", missionID),
			zap.String("phase", phase),
			zap.Error(err))
	}
}

// CompleteSession scores the session and applies the completion side
// effects. When the store is unreachable the payload lands on the offline
// queue and the completion is reported as queued; the in-memory terminal
// transition stands either way.
func (c *Coordinator) CompleteSession(s *Session, missionID string) (*Completion, error) {
	comp, err := s.Complete()
	if err != nil {
		return nil, err
	}
	if comp.AlreadyCompleted {
		return comp, nil
	}

	if err := c.applyCompletion(s.UserID, missionID, comp.ScorePct, comp.XPEarned, comp.Answers); err != nil {
		if apperrors.IsValidation(err) {
			// A validation failure will never succeed on retry.
			logger.Error("completion rejected by progress store",
				zap.String("user_id", s.UserID),
				zap.String("mission_id", missionID),
				zap.Error(err))
			return comp, nil
		}

		payload := offline.PendingSync{
			UserID:    s.UserID,
			MissionID: missionID,
			Score:     comp.ScorePct,
			XPEarned:  comp.XPEarned,
		}
		if qErr := c.queue.Enqueue(payload); qErr != nil {
			logger.Error("completion lost: store unreachable and enqueue failed",
				zap.String("user_id", s.UserID),
				zap.String("mission_id", missionID),
				zap.Error(qErr))
			return comp, nil
		}

		logger.Warn("store unreachable, completion queued for sync",
			zap.String("user_id", s.UserID),
			zap.String("mission_id", missionID),
			zap.Error(err))
		comp.Queued = true
	}

	return comp, nil
}

// Apply replays a queued completion. Safe to re-deliver: a record that is
// already completed is skipped without touching XP.
func (c *Coordinator) Apply(ctx context.Context, payload offline.PendingSync) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return c.applyCompletion(payload.UserID, payload.MissionID, payload.Score, payload.XPEarned, nil)
}

// applyCompletion writes the completed record and, when this call is the
// one that flipped the flag, grants the reward exactly once.
func (c *Coordinator) applyCompletion(userID, missionID string, score, xpEarned int, answers map[int]int) error {
	existing, err := c.store.Get(userID, missionID)
	if err != nil && !apperrors.IsNotFound(err) {
		return err
	}
	if existing != nil && existing.Completed {
		return nil
	}

	completed := true
	phase := progressmodels.PhaseCompleted
	conquerPct := 100
	write := progressmodels.ProgressWrite{
		UserID:          userID,
		MissionID:       missionID,
		Phase:           &phase,
		ConquerProgress: &conquerPct,
		Score:           &score,
		Completed:       &completed,
		Answers:         answers,
	}
	if _, err := c.store.Upsert(write); err != nil {
		return err
	}

	if err := c.rewards.ApplyCompletionReward(userID, xpEarned, missionID, "mission_completed"); err != nil {
		// The record is already marked completed, so a retry of this
		// payload would skip the reward. Surface it loudly instead.
		logger.Error("completion saved but reward failed",
			zap.String("user_id", userID),
			zap.String("mission_id", missionID),
			zap.Int("xp", xpEarned),
			zap.Error(err))
	}
	return nil
}
