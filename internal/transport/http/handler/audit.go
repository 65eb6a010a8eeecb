package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/model"
	"portfolio-site/internal/transport/http/response"
)

type AuditLister interface {
	ListRecent(ctx context.Context, action string, limit int) ([]model.AuditEvent, error)
}

type AuditHandler struct {
	lister AuditLister
}

// NewAuditHandler accepts a nil lister; the endpoint then answers 503.
func NewAuditHandler(lister AuditLister) *AuditHandler {
	return &AuditHandler{lister: lister}
}

// List serves GET /audit/documents?action=&limit=.
func (h *AuditHandler) List(c *gin.Context) {
	if h.lister == nil {
		response.Error(c, http.StatusServiceUnavailable, "audit log is not configured")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	events, err := h.lister.ListRecent(c.Request.Context(), c.Query("action"), limit)
	if err != nil {
		log.Printf("list audit events failed: %v", err)
		response.Error(c, http.StatusInternalServerError, "failed to list audit events")
		return
	}
	if events == nil {
		events = []model.AuditEvent{}
	}
	response.OK(c, events)
}
