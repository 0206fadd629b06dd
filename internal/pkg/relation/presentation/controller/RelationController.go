package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	relation "go-twitarr/internal/pkg/relation/application/domain"
	"go-twitarr/internal/pkg/relation/application/usecase"
)

// UserIDHeader carries the authenticated caller, set by the auth proxy in front of the API.
const UserIDHeader = "X-User-ID"

func requesterID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetHeader(UserIDHeader))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": UserIDHeader + " header must carry a user id"})
		return uuid.Nil, false
	}
	return id, true
}

func pathUserID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a uuid"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps relation errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, relation.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, relation.ErrTransientContention):
		c.Header("Retry-After", "1")
		status = http.StatusServiceUnavailable
	case errors.Is(err, relation.ErrStoreUnavailable),
		errors.Is(err, relation.ErrInvariantViolation),
		errors.Is(err, usecase.ErrPersistence):
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
