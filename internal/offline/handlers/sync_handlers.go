package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/sarathi/sarathi/internal/common/middleware"
	"github.com/sarathi/sarathi/internal/offline"
)

// SyncHandler exposes the offline queue: a manual flush trigger for the
// client's "back online" signal and a status view for debugging stuck
// payloads.
type SyncHandler struct {
	flusher *offline.Flusher
	monitor *offline.Monitor
	queue   *offline.Queue
}

func NewSyncHandler(flusher *offline.Flusher, monitor *offline.Monitor, queue *offline.Queue) *SyncHandler {
	return &SyncHandler{flusher: flusher, monitor: monitor, queue: queue}
}

// Sync marks connectivity restored and drains due payloads.
// POST /api/sync
func (h *SyncHandler) Sync(c *gin.Context) {
	h.monitor.SetOnline()

	delivered, err := h.flusher.FlushNow(c.Request.Context())
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(200, gin.H{
		"delivered": delivered,
		"pending":   len(h.queue.Pending()),
		"dead":      len(h.queue.DeadLetters()),
	})
}

// Offline marks connectivity lost; completions degrade to the queue until
// the next sync.
// POST /api/sync/offline
func (h *SyncHandler) Offline(c *gin.Context) {
	h.monitor.SetOffline()
	c.JSON(200, gin.H{"online": false})
}

// Status reports queue depth without flushing.
// GET /api/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(200, gin.H{
		"online":  h.monitor.Online(),
		"pending": h.queue.Pending(),
		"dead":    h.queue.DeadLetters(),
	})
}
