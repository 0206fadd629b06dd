package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	chat "go-twitarr/internal/pkg/chat/application/domain"
	"go-twitarr/internal/pkg/chat/application/usecase"
)

// CreateChatController handles the thread creation endpoint.
type CreateChatController struct {
	UC *usecase.CreateChatUseCase
}

func NewCreateChatController(uc *usecase.CreateChatUseCase) *CreateChatController {
	return &CreateChatController{UC: uc}
}

type createChatRequest struct {
	Kind           string      `json:"kind" binding:"required,oneof=forum fez"`
	Title          string      `json:"title" binding:"required"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
}

func (h *CreateChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := requesterID(c)
		if !ok {
			return
		}
		var req createChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		kind := chat.ThreadKindForum
		if req.Kind == chat.ThreadKindFez.String() {
			kind = chat.ThreadKindFez
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		created, err := h.UC.Execute(ctx, usecase.CreateChatInput{
			OwnerID:        owner,
			Kind:           kind,
			Title:          req.Title,
			ParticipantIDs: req.ParticipantIDs,
		})
		if err != nil {
			writeError(c, err)
			return
		}

		members := make([]uuid.UUID, 0, len(created.Participants))
		for id := range created.Participants {
			members = append(members, id)
		}
		c.JSON(http.StatusCreated, gin.H{
			"id":           created.Thread.ID,
			"kind":         created.Thread.Kind.String(),
			"title":        created.Thread.Title,
			"owner_id":     created.Thread.OwnerID,
			"created_at":   created.Thread.CreatedAt,
			"participants": members,
		})
	}
}
