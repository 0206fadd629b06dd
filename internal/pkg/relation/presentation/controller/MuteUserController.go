package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-twitarr/internal/pkg/relation/application/usecase"
)

// MuteUserController handles POST (mute) and DELETE (unmute) on a target user.
type MuteUserController struct {
	MuteUC   *usecase.MuteUserUseCase
	UnmuteUC *usecase.UnmuteUserUseCase
}

func NewMuteUserController(mute *usecase.MuteUserUseCase, unmute *usecase.UnmuteUserUseCase) *MuteUserController {
	return &MuteUserController{MuteUC: mute, UnmuteUC: unmute}
}

func (h *MuteUserController) Mute() gin.HandlerFunc {
	return h.handle(h.MuteUC.Execute)
}

func (h *MuteUserController) Unmute() gin.HandlerFunc {
	return h.handle(h.UnmuteUC.Execute)
}

func (h *MuteUserController) handle(run func(context.Context, usecase.MuteUserInput) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, ok := requesterID(c)
		if !ok {
			return
		}
		target, ok := pathUserID(c, "userId")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := run(ctx, usecase.MuteUserInput{RequesterID: requester, TargetID: target}); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
