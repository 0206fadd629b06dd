package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-twitarr/internal/pkg/relation/application/usecase"
)

type UpdateProfileController struct {
	UC *usecase.UpdateProfileUseCase
}

func NewUpdateProfileController(uc *usecase.UpdateProfileUseCase) *UpdateProfileController {
	return &UpdateProfileController{UC: uc}
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarRef   *string `json:"avatar_ref"`
}

func (h *UpdateProfileController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requesterID(c)
		if !ok {
			return
		}
		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		header, err := h.UC.Execute(ctx, usecase.UpdateProfileInput{
			UserID:      userID,
			DisplayName: req.DisplayName,
			AvatarRef:   req.AvatarRef,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, header)
	}
}
