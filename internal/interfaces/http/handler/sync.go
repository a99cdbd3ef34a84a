package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vidahome/backend/internal/domain/listing"
)

// SyncRunner runs catalog reconciliation against the property source.
type SyncRunner interface {
	RunFull(ctx context.Context) (*listing.SyncSummary, error)
	RunIncremental(ctx context.Context, batchSize int) (*listing.SyncSummary, error)
	RunDelta(ctx context.Context) (*listing.DeltaReport, error)
}

// SyncHandler exposes the administrative sync endpoints.
type SyncHandler struct {
	BaseHandler
	runner SyncRunner
	auth   gin.HandlerFunc
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(runner SyncRunner, auth gin.HandlerFunc) *SyncHandler {
	return &SyncHandler{runner: runner, auth: auth}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/admin/sync", h.auth)
	{
		sync.POST("/full", h.RunFull)
		sync.POST("/incremental", h.RunIncremental)
		// Also reachable by GET so the batch can be triggered from a
		// plain cron curl.
		sync.GET("/incremental", h.RunIncremental)
		sync.POST("/delta", h.RunDelta)
	}
}

// RunFull walks the whole remote catalog and reconciles the local
// store against it.
// POST /api/v1/admin/sync/full
func (h *SyncHandler) RunFull(c *gin.Context) {
	summary, err := h.runner.RunFull(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// RunIncremental syncs the next batch of listings after the stored
// cursor. The optional batchSize query parameter overrides the default.
// POST /api/v1/admin/sync/incremental?batchSize=10
func (h *SyncHandler) RunIncremental(c *gin.Context) {
	batchSize := 0
	if raw := c.Query("batchSize"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "batchSize must be an integer")
			return
		}
		batchSize = parsed
	}

	summary, err := h.runner.RunIncremental(c.Request.Context(), batchSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// RunDelta reconciles availability without a full catalog walk.
// POST /api/v1/admin/sync/delta
func (h *SyncHandler) RunDelta(c *gin.Context) {
	report, err := h.runner.RunDelta(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
