package relationship

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kindling-app/kindling/internal/apperr"
)

// Registrar ties the relationship service into the HTTP router.
type Registrar struct {
	svc *Service
}

func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

func (r *Registrar) Register(rg *gin.RouterGroup) {
	rg.POST("/friend-requests", r.request)
	rg.POST("/friend-requests/:id/accept", r.accept)
	rg.POST("/friend-requests/:id/decline", r.decline)
	rg.GET("/users/:id/friend-requests", r.pendingFor)
	rg.GET("/users/:id/notifications", r.notifications)
	rg.POST("/graceful-exits", r.gracefulExit)
	rg.POST("/unmatches", r.unmatch)
	rg.POST("/blocks", r.block)
}

type pairRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	OtherID string `json:"other_id" binding:"required"`
}

func (p pairRequest) parse() (uuid.UUID, uuid.UUID, error) {
	u, err := uuid.Parse(p.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.Validation("user_id must be a valid uuid")
	}
	o, err := uuid.Parse(p.OtherID)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.Validation("other_id must be a valid uuid")
	}
	return u, o, nil
}

func (r *Registrar) request(c *gin.Context) {
	var req pairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Render(c, apperr.Validation("invalid payload"))
		return
	}
	requester, target, err := req.parse()
	if err != nil {
		apperr.Render(c, err)
		return
	}

	request, err := r.svc.RequestFriendZone(c.Request.Context(), requester, target)
	if err != nil {
		apperr.Render(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request_id": request.ID.String(), "status": request.Status})
}

type respondRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (r *Registrar) accept(c *gin.Context) {
	r.respond(c, r.svc.AcceptFriendZone)
}

func (r *Registrar) decline(c *gin.Context) {
	r.respond(c, r.svc.DeclineFriendZone)
}

func (r *Registrar) respond(c *gin.Context, op func(ctx context.Context, requestID, userID uuid.UUID) error) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperr.Render(c, apperr.Validation("id must be a valid uuid"))
		return
	}
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Render(c, apperr.Validation("invalid payload"))
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		apperr.Render(c, apperr.Validation("user_id must be a valid uuid"))
		return
	}

	if err := op(c.Request.Context(), requestID, userID); err != nil {
		apperr.Render(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Registrar) pendingFor(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperr.Render(c, apperr.Validation("id must be a valid uuid"))
		return
	}

	requests, err := r.svc.PendingRequestsFor(c.Request.Context(), userID)
	if err != nil {
		apperr.Render(c, err)
		return
	}

	type requestView struct {
		ID         string `json:"id"`
		FromUserID string `json:"from_user_id"`
		CreatedAt  int64  `json:"created_at"`
	}
	views := make([]requestView, 0, len(requests))
	for _, req := range requests {
		views = append(views, requestView{
			ID:         req.ID.String(),
			FromUserID: req.FromUserID.String(),
			CreatedAt:  req.CreatedAt.UnixMilli(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"requests": views})
}

func (r *Registrar) notifications(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperr.Render(c, apperr.Validation("id must be a valid uuid"))
		return
	}

	notifications, err := r.svc.NotificationsFor(c.Request.Context(), userID, 50)
	if err != nil {
		apperr.Render(c, err)
		return
	}

	type notificationView struct {
		ID        string            `json:"id"`
		Type      string            `json:"type"`
		Title     string            `json:"title"`
		Body      string            `json:"body"`
		Metadata  map[string]string `json:"metadata,omitempty"`
		Read      bool              `json:"read"`
		CreatedAt int64             `json:"created_at"`
	}
	views := make([]notificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, notificationView{
			ID:        n.ID.String(),
			Type:      n.Type,
			Title:     n.Title,
			Body:      n.Body,
			Metadata:  n.Metadata,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.UnixMilli(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": views})
}

func (r *Registrar) gracefulExit(c *gin.Context) {
	r.pairOp(c, r.svc.GracefulExit)
}

func (r *Registrar) unmatch(c *gin.Context) {
	r.pairOp(c, r.svc.Unmatch)
}

func (r *Registrar) block(c *gin.Context) {
	r.pairOp(c, r.svc.Block)
}

func (r *Registrar) pairOp(c *gin.Context, op func(ctx context.Context, userID, otherID uuid.UUID) error) {
	var req pairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Render(c, apperr.Validation("invalid payload"))
		return
	}
	userID, otherID, err := req.parse()
	if err != nil {
		apperr.Render(c, err)
		return
	}

	if err := op(c.Request.Context(), userID, otherID); err != nil {
		apperr.Render(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
