package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go-twitarr/internal/pkg/chat/application/usecase"
)

type DeletePostController struct {
	UC *usecase.DeletePostUseCase
}

func NewDeletePostController(uc *usecase.DeletePostUseCase) *DeletePostController {
	return &DeletePostController{UC: uc}
}

func (h *DeletePostController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, ok := requesterID(c)
		if !ok {
			return
		}
		postID, err := strconv.ParseInt(c.Param("postId"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "postId must be a post id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if _, err := h.UC.Execute(ctx, usecase.DeletePostInput{PostID: postID, RequesterID: requester}); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
