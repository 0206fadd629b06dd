package http

import (
	"github.com/gin-gonic/gin"

	"go-twitarr/internal/pkg/relation/application/usecase"
	"go-twitarr/internal/pkg/relation/presentation/controller"
)

// RegisterRoutes registers user and relationship endpoints under the given router group.
func RegisterRoutes(g *gin.RouterGroup, r usecase.Relationships) {
	createCtl := controller.NewCreateUserController(usecase.NewCreateUserUseCase(r))
	profileCtl := controller.NewUpdateProfileController(usecase.NewUpdateProfileUseCase(r))
	headerCtl := controller.NewUserHeaderController(r.Cache)
	blockCtl := controller.NewBlockUserController(usecase.NewBlockUserUseCase(r), usecase.NewUnblockUserUseCase(r))
	muteCtl := controller.NewMuteUserController(usecase.NewMuteUserUseCase(r), usecase.NewUnmuteUserUseCase(r))
	keywordCtl := controller.NewKeywordController(usecase.NewAddKeywordUseCase(r), usecase.NewRemoveKeywordUseCase(r))

	// POST /api/v1/users -> create an account or sub-account
	g.POST("/users", createCtl.Handle())
	// PATCH /api/v1/users/me -> edit display name / avatar
	g.PATCH("/users/me", profileCtl.Handle())
	// GET /api/v1/users/:userId/header
	g.GET("/users/:userId/header", headerCtl.Handle())

	g.POST("/users/:userId/block", blockCtl.Block())
	g.DELETE("/users/:userId/block", blockCtl.Unblock())
	g.POST("/users/:userId/mute", muteCtl.Mute())
	g.DELETE("/users/:userId/mute", muteCtl.Unmute())

	// kind is "mute" or "alert"
	g.POST("/keywords/:kind/:word", keywordCtl.Add())
	g.DELETE("/keywords/:kind/:word", keywordCtl.Remove())
}
