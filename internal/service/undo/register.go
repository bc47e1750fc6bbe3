package undo

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kindling-app/kindling/internal/apperr"
)

// Registrar ties the undo service into the HTTP router.
type Registrar struct {
	svc *Service
}

func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

func (r *Registrar) Register(rg *gin.RouterGroup) {
	rg.POST("/users/:id/undo", r.undo)
	rg.GET("/users/:id/undo", r.status)
}

func (r *Registrar) undo(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperr.Render(c, apperr.Validation("id must be a valid uuid"))
		return
	}

	result, err := r.svc.Undo(c.Request.Context(), userID)
	if err != nil {
		apperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"direction":     result.Direction,
		"other_user_id": result.OtherUserID.String(),
		"match_removed": result.MatchRemoved,
	})
}

func (r *Registrar) status(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperr.Render(c, apperr.Validation("id must be a valid uuid"))
		return
	}

	canUndo, err := r.svc.CanUndo(c.Request.Context(), userID)
	if err != nil {
		apperr.Render(c, err)
		return
	}
	seconds, err := r.svc.SecondsRemaining(c.Request.Context(), userID)
	if err != nil {
		apperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"can_undo":          canUndo,
		"seconds_remaining": seconds,
	})
}
