package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-twitarr/internal/pkg/chat/application/usecase"
)

// JoinThreadController handles fez membership: POST joins, GET lists members.
type JoinThreadController struct {
	JoinUC    *usecase.JoinThreadUseCase
	MembersUC *usecase.ListParticipantsUseCase
}

func NewJoinThreadController(join *usecase.JoinThreadUseCase, members *usecase.ListParticipantsUseCase) *JoinThreadController {
	return &JoinThreadController{JoinUC: join, MembersUC: members}
}

func (h *JoinThreadController) Join() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requesterID(c)
		if !ok {
			return
		}
		threadID, ok := pathThreadID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		pivot, err := h.JoinUC.Execute(ctx, usecase.JoinThreadInput{ThreadID: threadID, UserID: userID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"thread_id":    threadID,
			"read_count":   pivot.ReadCount,
			"hidden_count": pivot.HiddenCount,
		})
	}
}

func (h *JoinThreadController) Members() gin.HandlerFunc {
	return func(c *gin.Context) {
		threadID, ok := pathThreadID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		ids, err := h.MembersUC.Execute(ctx, usecase.ListParticipantsInput{ThreadID: threadID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"participants": ids})
	}
}
