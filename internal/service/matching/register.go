package matching

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kindling-app/kindling/internal/apperr"
)

// Registrar ties the matching service into the HTTP router.
type Registrar struct {
	svc *Service
}

func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

func (r *Registrar) Register(rg *gin.RouterGroup) {
	rg.POST("/swipes", r.putSwipe)
	rg.GET("/users/:id/likers", r.listLikers)
}

type swipeRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	CandidateID string `json:"candidate_id" binding:"required"`
	Liked       bool   `json:"liked"`
}

func (r *Registrar) putSwipe(c *gin.Context) {
	var req swipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Render(c, apperr.Validation("invalid swipe payload"))
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		apperr.Render(c, apperr.Validation("user_id must be a valid uuid"))
		return
	}
	candidateID, err := uuid.Parse(req.CandidateID)
	if err != nil {
		apperr.Render(c, apperr.Validation("candidate_id must be a valid uuid"))
		return
	}

	result, err := r.svc.ProcessSwipe(c.Request.Context(), userID, candidateID, req.Liked)
	if err != nil {
		apperr.Render(c, err)
		return
	}

	resp := gin.H{
		"success":       result.Success,
		"matched":       result.Matched,
		"limit_reached": result.LimitReached,
		"message":       result.Message,
	}
	if result.Match != nil {
		resp["match_id"] = result.Match.ID
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Registrar) listLikers(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperr.Render(c, apperr.Validation("id must be a valid uuid"))
		return
	}

	var token *string
	if t := c.Query("page_token"); t != "" {
		token = &t
	}

	likers, nextToken, err := r.svc.ListPendingLikers(c.Request.Context(), userID, token, 20)
	if err != nil {
		apperr.Render(c, err)
		return
	}

	type likerView struct {
		UserID  string `json:"user_id"`
		Name    string `json:"name"`
		LikedAt int64  `json:"liked_at"`
	}
	views := make([]likerView, 0, len(likers))
	for _, l := range likers {
		views = append(views, likerView{
			UserID:  l.User.ID.String(),
			Name:    l.User.Name,
			LikedAt: l.LikedAt,
		})
	}

	resp := gin.H{"likers": views}
	if nextToken != nil {
		resp["next_page_token"] = *nextToken
	}
	c.JSON(http.StatusOK, resp)
}
