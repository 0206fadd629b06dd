package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go-twitarr/internal/pkg/chat/application/usecase"
)

// PageThreadController serves one page of a thread. Query parameters:
// start (unfiltered index), post (target post id) and limit.
type PageThreadController struct {
	UC      *usecase.PageThreadUseCase
	Headers Headers
}

func NewPageThreadController(uc *usecase.PageThreadUseCase, headers Headers) *PageThreadController {
	return &PageThreadController{UC: uc, Headers: headers}
}

func (h *PageThreadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, ok := requesterID(c)
		if !ok {
			return
		}
		threadID, ok := pathThreadID(c)
		if !ok {
			return
		}
		start, ok := optionalInt(c, "start")
		if !ok {
			return
		}
		limit, ok := optionalInt(c, "limit")
		if !ok {
			return
		}
		in := usecase.PageThreadInput{ThreadID: threadID, ViewerID: viewer, Start: start, Limit: limit}
		if v := c.Query("post"); v != "" {
			postID, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "post must be a post id"})
				return
			}
			in.PostID = &postID
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		page, err := h.UC.Execute(ctx, in)
		if err != nil {
			writeError(c, err)
			return
		}

		out := make([]postPayload, 0, len(page.Posts))
		for _, p := range page.Posts {
			out = append(out, toPayload(p, h.Headers))
		}
		c.JSON(http.StatusOK, gin.H{
			"posts":      out,
			"start":      page.Start,
			"limit":      page.Limit,
			"total":      page.Total,
			"read_count": page.ReadCount,
			"unread":     page.Unread,
		})
	}
}
