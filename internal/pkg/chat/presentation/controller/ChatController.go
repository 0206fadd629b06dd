package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	chat "go-twitarr/internal/pkg/chat/application/domain"
	"go-twitarr/internal/pkg/chat/application/usecase"
	relation "go-twitarr/internal/pkg/relation/application/domain"
	relcontroller "go-twitarr/internal/pkg/relation/presentation/controller"
)

// Headers resolves author headers for rendering. Satisfied by *usercache.Cache.
type Headers interface {
	Header(userID uuid.UUID) (relation.Header, error)
}

type postPayload struct {
	ID        int64            `json:"id"`
	ThreadID  uuid.UUID        `json:"thread_id"`
	Author    *relation.Header `json:"author,omitempty"`
	AuthorID  uuid.UUID        `json:"author_id"`
	Text      string           `json:"text"`
	CreatedAt time.Time        `json:"created_at"`
}

func toPayload(p chat.Post, headers Headers) postPayload {
	out := postPayload{
		ID:        p.ID,
		ThreadID:  p.ThreadID,
		AuthorID:  p.AuthorID,
		Text:      p.Text,
		CreatedAt: p.CreatedAt,
	}
	if headers != nil {
		if h, err := headers.Header(p.AuthorID); err == nil {
			out.Author = &h
		}
	}
	return out
}

func requesterID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetHeader(relcontroller.UserIDHeader))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": relcontroller.UserIDHeader + " header must carry a user id"})
		return uuid.Nil, false
	}
	return id, true
}

func pathThreadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("threadId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threadId must be a uuid"})
		return uuid.Nil, false
	}
	return id, true
}

// optionalInt parses a query parameter, leaving the result nil when absent.
func optionalInt(c *gin.Context, name string) (*int, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
		return nil, false
	}
	return &n, true
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, chat.ErrThreadNotFound),
		errors.Is(err, chat.ErrPostNotFound),
		errors.Is(err, relation.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrNotParticipant),
		errors.Is(err, chat.ErrThreadUnavailable),
		errors.Is(err, chat.ErrNotPostOwner),
		errors.Is(err, chat.ErrUserBlocked):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrPersistence),
		errors.Is(err, relation.ErrInvariantViolation):
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"error": err.Error()})
}
