package discovery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/db"
)

// Registrar ties the discovery service into the HTTP router.
type Registrar struct {
	svc *Service
}

func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

func (r *Registrar) Register(rg *gin.RouterGroup) {
	rg.GET("/users/:id/candidates", r.candidates)
	rg.GET("/users/:id/daily-pick", r.dailyPick)
	rg.POST("/users/:id/daily-pick/viewed", r.markViewed)
}

type candidateView struct {
	UserID string    `json:"user_id"`
	Name   string    `json:"name"`
	Age    int       `json:"age"`
	Gender db.Gender `json:"gender"`
}

func (r *Registrar) candidates(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperr.Render(c, apperr.Validation("id must be a valid uuid"))
		return
	}

	candidates, err := r.svc.FindCandidatesFor(c.Request.Context(), userID)
	if err != nil {
		apperr.Render(c, err)
		return
	}

	views := make([]candidateView, 0, len(candidates))
	for _, u := range candidates {
		views = append(views, candidateView{
			UserID: u.ID.String(),
			Name:   u.Name,
			Age:    u.Age,
			Gender: u.Gender,
		})
	}
	c.JSON(http.StatusOK, gin.H{"candidates": views})
}

func (r *Registrar) dailyPick(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperr.Render(c, apperr.Validation("id must be a valid uuid"))
		return
	}

	pick, err := r.svc.DailyPick(c.Request.Context(), userID)
	if err != nil {
		apperr.Render(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      pick.User.ID.String(),
		"name":         pick.User.Name,
		"date":         pick.Date,
		"reason":       pick.Reason,
		"already_seen": pick.AlreadySeen,
	})
}

func (r *Registrar) markViewed(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperr.Render(c, apperr.Validation("id must be a valid uuid"))
		return
	}

	if err := r.svc.MarkDailyPickViewed(c.Request.Context(), userID); err != nil {
		apperr.Render(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
