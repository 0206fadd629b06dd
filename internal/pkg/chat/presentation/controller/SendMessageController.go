package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-twitarr/internal/pkg/chat/application/task"
)

// SendMessageController accepts a post and enqueues it for background storage.
type SendMessageController struct {
	Sender *task.Sender
}

func NewSendMessageController(sender *task.Sender) *SendMessageController {
	return &SendMessageController{Sender: sender}
}

// sendMessageRequest is the DTO for the HTTP request body
type sendMessageRequest struct {
	Text      string `json:"text" binding:"required"`
	ClientKey string `json:"client_key"`
}

// Handle returns a gin handler that enqueues a background task to store a post
func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		author, ok := requesterID(c)
		if !ok {
			return
		}
		threadID, ok := pathThreadID(c)
		if !ok {
			return
		}
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		id, err := h.Sender.Enqueue(ctx, task.SendMessageTaskPayload{
			ThreadID: threadID,
			AuthorID: author,
			Text:     req.Text,
		}, req.ClientKey)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue post"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":    "queued",
			"task_id":   id,
			"thread_id": threadID,
			"author_id": author,
		})
	}
}
