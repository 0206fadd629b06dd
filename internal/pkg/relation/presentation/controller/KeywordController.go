package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	relation "go-twitarr/internal/pkg/relation/application/domain"
	"go-twitarr/internal/pkg/relation/application/usecase"
)

// KeywordController handles POST and DELETE on /keywords/:kind/:word.
type KeywordController struct {
	AddUC    *usecase.AddKeywordUseCase
	RemoveUC *usecase.RemoveKeywordUseCase
}

func NewKeywordController(add *usecase.AddKeywordUseCase, remove *usecase.RemoveKeywordUseCase) *KeywordController {
	return &KeywordController{AddUC: add, RemoveUC: remove}
}

func (h *KeywordController) Add() gin.HandlerFunc {
	return h.handle(h.AddUC.Execute)
}

func (h *KeywordController) Remove() gin.HandlerFunc {
	return h.handle(h.RemoveUC.Execute)
}

func (h *KeywordController) handle(run func(context.Context, usecase.KeywordInput) ([]string, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requesterID(c)
		if !ok {
			return
		}
		kind, ok := relation.ParseKeywordKind(c.Param("kind"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be mute or alert"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		words, err := run(ctx, usecase.KeywordInput{UserID: userID, Kind: kind, Word: c.Param("word")})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"kind": kind.String(), "keywords": words})
	}
}
