package quota

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kindling-app/kindling/internal/apperr"
)

// Registrar ties the quota service into the HTTP router.
type Registrar struct {
	svc *Service
}

func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

func (r *Registrar) Register(rg *gin.RouterGroup) {
	rg.GET("/users/:id/quota", r.status)
}

func (r *Registrar) status(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperr.Render(c, apperr.Validation("id must be a valid uuid"))
		return
	}

	status, err := r.svc.GetStatus(c.Request.Context(), userID)
	if err != nil {
		apperr.Render(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
