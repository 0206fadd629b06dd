package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-twitarr/internal/pkg/relation/application/usercache"
)

// UserHeaderController serves the cached header of any user.
type UserHeaderController struct {
	Cache *usercache.Cache
}

func NewUserHeaderController(cache *usercache.Cache) *UserHeaderController {
	return &UserHeaderController{Cache: cache}
}

func (h *UserHeaderController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pathUserID(c, "userId")
		if !ok {
			return
		}
		header, err := h.Cache.Header(userID)
		if err != nil {
			// Unknown ids from clients are not an internal failure.
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusOK, header)
	}
}
