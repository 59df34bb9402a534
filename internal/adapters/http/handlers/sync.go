package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotevault/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotevault/internal/app"
	"github.com/jsamuelsen/quotevault/internal/domain"
)

// SyncHandler handles the sync trigger and status endpoints.
type SyncHandler struct {
	service   *app.SyncService
	scheduler *app.Scheduler
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(service *app.SyncService, scheduler *app.Scheduler) *SyncHandler {
	return &SyncHandler{
		service:   service,
		scheduler: scheduler,
	}
}

// Trigger handles POST /api/v1/sync.
// Runs one reconciliation pass and returns its outcome. If a pass is
// already in flight the request is rejected with a conflict instead of
// queueing a second pass.
func (h *SyncHandler) Trigger(c *gin.Context) {
	outcome := h.service.SyncOnce(c.Request.Context())
	if outcome.Status == domain.StatusSkipped {
		dto.HandleError(c, domain.ErrSyncInFlight)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// Status handles GET /api/v1/sync/status.
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, dto.SyncStatusResponse{
		SchedulerRunning: h.scheduler.Running(),
		LastOutcome:      h.service.LastOutcome(),
	})
}

// RegisterSyncRoutes registers the sync routes on the given router group.
func (h *SyncHandler) RegisterSyncRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync", h.Trigger)
	rg.GET("/sync/status", h.Status)
}
