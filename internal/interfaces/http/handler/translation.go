package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/vidahome/backend/internal/application/translation"
)

// TranslationRunner fills missing listing translations.
type TranslationRunner interface {
	TranslateBatch(ctx context.Context, ids []int64, limit int, targetLangs []string, force bool) (*translation.BatchResult, error)
}

// TranslationRunRequest selects which listings to translate. Without
// ids, up to limit listings with missing translations are picked.
type TranslationRunRequest struct {
	IDs         []int64  `json:"ids"`
	Limit       int      `json:"limit" binding:"omitempty,min=1,max=100"`
	TargetLangs []string `json:"targetLangs"`
	Force       bool     `json:"force"`
}

// TranslationHandler exposes the administrative translation endpoint.
type TranslationHandler struct {
	BaseHandler
	runner TranslationRunner
	auth   gin.HandlerFunc
}

// NewTranslationHandler creates a new translation handler.
func NewTranslationHandler(runner TranslationRunner, auth gin.HandlerFunc) *TranslationHandler {
	return &TranslationHandler{runner: runner, auth: auth}
}

// RegisterRoutes registers translation routes
func (h *TranslationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/translations/run", h.auth, h.Run)
}

// Run translates a batch of listings.
// POST /api/v1/admin/translations/run
func (h *TranslationHandler) Run(c *gin.Context) {
	req := TranslationRunRequest{Limit: 10}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	result, err := h.runner.TranslateBatch(c.Request.Context(), req.IDs, req.Limit, req.TargetLangs, req.Force)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
