package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"
)

func statusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindInvalidTransition:
		return http.StatusConflict
	case domain.KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	message := err.Error()
	if kind == domain.KindInternal {
		_ = c.Error(err)
		message = "internal error"
	}
	c.JSON(statusForKind(kind), gin.H{"error": message, "kind": kind})
}

// actorFromRequest builds the caller identity from headers set by the authenticating gateway.
func actorFromRequest(c *gin.Context) (domain.Actor, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.GetHeader(headerActorID)), 10, 64)
	if err != nil || id <= 0 {
		return domain.Actor{}, errors.New("missing or invalid " + headerActorID + " header")
	}
	switch strings.ToLower(strings.TrimSpace(c.GetHeader(headerActorRole))) {
	case "admin":
		return domain.Admin(id), nil
	case "partner":
		return domain.Owner(id), nil
	default:
		return domain.Actor{}, errors.New("missing or invalid " + headerActorRole + " header")
	}
}

func requireActor(c *gin.Context) (domain.Actor, bool) {
	actor, err := actorFromRequest(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "kind": "unauthenticated"})
		return domain.Actor{}, false
	}
	return actor, true
}

func requireAdmin(c *gin.Context) (domain.Actor, bool) {
	actor, ok := requireActor(c)
	if !ok {
		return actor, false
	}
	if !actor.IsAdmin() {
		writeError(c, domain.ErrAdminOnly)
		return actor, false
	}
	return actor, true
}

func requirePartner(c *gin.Context) (domain.Actor, bool) {
	actor, ok := requireActor(c)
	if !ok {
		return actor, false
	}
	if actor.Kind != domain.ActorOwner {
		writeError(c, fmt.Errorf("%w: partner role required", domain.ErrForbidden))
		return actor, false
	}
	return actor, true
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, domain.NewValidationError(name, "invalid id"))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, domain.NewValidationError("body", err.Error()))
		return false
	}
	return true
}
