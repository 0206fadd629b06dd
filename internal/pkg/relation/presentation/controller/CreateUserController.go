package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-twitarr/internal/pkg/relation/application/usecase"
)

// CreateUserController handles account creation, including sub-accounts.
type CreateUserController struct {
	UC *usecase.CreateUserUseCase
}

func NewCreateUserController(uc *usecase.CreateUserUseCase) *CreateUserController {
	return &CreateUserController{UC: uc}
}

type createUserRequest struct {
	Username    string     `json:"username" binding:"required"`
	DisplayName *string    `json:"display_name"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

func (h *CreateUserController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		u, err := h.UC.Execute(ctx, usecase.CreateUserInput{
			Username:    req.Username,
			DisplayName: req.DisplayName,
			ParentID:    req.ParentID,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, u.Header())
	}
}
