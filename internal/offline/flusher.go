package offline

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/sarathi/sarathi/pkg/logger"
)

// Flusher drains the queue in the background: on a fixed interval, and
// immediately whenever the monitor reports connectivity coming back.
type Flusher struct {
	scheduler *gocron.Scheduler
	queue     *Queue
	monitor   *Monitor
	target    Target
	interval  time.Duration
	cancel    context.CancelFunc
}

func NewFlusher(queue *Queue, monitor *Monitor, target Target, interval time.Duration) *Flusher {
	return &Flusher{
		scheduler: gocron.NewScheduler(time.UTC),
		queue:     queue,
		monitor:   monitor,
		target:    target,
		interval:  interval,
	}
}

// Start schedules the periodic flush and subscribes to connectivity
// transitions. Non-blocking.
func (f *Flusher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel

	f.scheduler.Every(f.interval).Do(func() { f.flush(ctx) })
	f.scheduler.StartAsync()

	online := f.monitor.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-online:
				f.flush(ctx)
			}
		}
	}()
}

// Stop halts the periodic job and the connectivity listener.
func (f *Flusher) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	f.scheduler.Stop()
}

// FlushNow drains due payloads immediately; used by the manual sync route.
func (f *Flusher) FlushNow(ctx context.Context) (int, error) {
	return f.queue.Flush(ctx, f.target)
}

func (f *Flusher) flush(ctx context.Context) {
	if !f.monitor.Online() {
		return
	}

	delivered, err := f.queue.Flush(ctx, f.target)
	if err != nil {
		logger.Warn("background sync flush failed", zap.Error(err))
		return
	}
	if delivered > 0 {
		logger.Info("background sync delivered queued completions",
			zap.Int("delivered", delivered),
			zap.Int("pending", len(f.queue.Pending())))
	}
}
