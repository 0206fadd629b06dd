package v1

import (
	"github.com/gin-gonic/gin"

	chathttp "go-twitarr/internal/pkg/chat/presentation/http"
	"go-twitarr/internal/pkg/relation/application/usecase"
	relationhttp "go-twitarr/internal/pkg/relation/presentation/http"
)

// Dependencies is everything the version 1 API is assembled from.
type Dependencies struct {
	Relationships usecase.Relationships
	Threads       chathttp.Dependencies
}

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, d Dependencies) {
	v1 := r.Group("/api/v1")
	relationhttp.RegisterRoutes(v1, d.Relationships)
	chathttp.RegisterRoutes(v1, d.Threads)
}
