package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-twitarr/internal/pkg/relation/application/usecase"
)

// BlockUserController handles POST (block) and DELETE (unblock) on a target user.
type BlockUserController struct {
	BlockUC   *usecase.BlockUserUseCase
	UnblockUC *usecase.UnblockUserUseCase
}

func NewBlockUserController(block *usecase.BlockUserUseCase, unblock *usecase.UnblockUserUseCase) *BlockUserController {
	return &BlockUserController{BlockUC: block, UnblockUC: unblock}
}

func (h *BlockUserController) Block() gin.HandlerFunc {
	return h.handle(func(ctx context.Context, in usecase.BlockUserInput) error {
		return h.BlockUC.Execute(ctx, in)
	})
}

func (h *BlockUserController) Unblock() gin.HandlerFunc {
	return h.handle(func(ctx context.Context, in usecase.BlockUserInput) error {
		return h.UnblockUC.Execute(ctx, in)
	})
}

func (h *BlockUserController) handle(run func(context.Context, usecase.BlockUserInput) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, ok := requesterID(c)
		if !ok {
			return
		}
		target, ok := pathUserID(c, "userId")
		if !ok {
			return
		}

		// Block operations wait on the relationship lease.
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := run(ctx, usecase.BlockUserInput{RequesterID: requester, TargetID: target}); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
