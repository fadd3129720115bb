package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/Domenick1991/partnerbooking/internal/service/audit"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	service audit.AuditUseCase
}

func NewAuditHandler(service audit.AuditUseCase) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
}

func (h *AuditHandler) list(c *gin.Context) {
	actor, ok := requireAdmin(c)
	if !ok {
		return
	}
	filter, err := auditFilterFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}

	entries, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// auditFilterFromQuery reads actor_id, target_type, target_id, from, to (RFC 3339) and limit.
func auditFilterFromQuery(c *gin.Context) (domain.AuditLogFilter, error) {
	filter := domain.AuditLogFilter{TargetType: c.Query("target_type")}

	if v := c.Query("actor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, domain.NewValidationError("actor_id", "must be an integer")
		}
		filter.ActorID = &id
	}
	if v := c.Query("target_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, domain.NewValidationError("target_id", "must be an integer")
		}
		filter.TargetID = &id
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, domain.NewValidationError("from", "must be an RFC 3339 timestamp")
		}
		filter.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, domain.NewValidationError("to", "must be an RFC 3339 timestamp")
		}
		filter.To = &t
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, domain.NewValidationError("limit", "must be an integer")
		}
		filter.Limit = n
	}
	return filter, nil
}
