package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"go-twitarr/internal/infrastructure/realtime"
	"go-twitarr/internal/pkg/chat/application/task"
	"go-twitarr/internal/pkg/chat/application/usecase"
	"go-twitarr/internal/pkg/chat/presentation/controller"
)

// Dependencies carries what the thread endpoints are built from. Send is
// shared with the queue worker so both paths fan out the same way.
type Dependencies struct {
	Threads      usecase.Threads
	Cache        controller.Snapshots
	Send         *usecase.SendMessageUseCase
	Sender       *task.Sender
	Realtime     *realtime.Router
	DefaultLimit int
	MaxLimit     int
	Metrics      usecase.PageMetrics
	Logger       *slog.Logger
}

// RegisterRoutes registers thread-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, d Dependencies) {
	createCtl := controller.NewCreateChatController(usecase.NewCreateChatUseCase(d.Threads))
	pageCtl := controller.NewPageThreadController(usecase.NewPageThreadUseCase(d.Threads, d.DefaultLimit, d.MaxLimit, d.Metrics), d.Cache)
	sendCtl := controller.NewSendMessageController(d.Sender)
	deleteCtl := controller.NewDeletePostController(usecase.NewDeletePostUseCase(d.Threads))
	joinCtl := controller.NewJoinThreadController(usecase.NewJoinThreadUseCase(d.Threads), usecase.NewListParticipantsUseCase(d.Threads))
	socketCtl := controller.NewChatSocketController(d.Realtime, d.Send, usecase.NewJoinConversationUseCase(d.Threads), d.Logger)

	// POST /api/v1/threads -> create a forum thread or fez
	g.POST("/threads", createCtl.Handle())

	// GET /api/v1/threads/:threadId/posts?start=&post=&limit=
	g.GET("/threads/:threadId/posts", pageCtl.Handle())

	// POST /api/v1/threads/:threadId/posts -> enqueue a post
	g.POST("/threads/:threadId/posts", sendCtl.Handle())

	g.POST("/threads/:threadId/join", joinCtl.Join())
	g.GET("/threads/:threadId/participants", joinCtl.Members())
	g.DELETE("/posts/:postId", deleteCtl.Handle())

	// GET /api/v1/ws/threads -> websocket endpoint for realtime threads
	g.GET("/ws/threads", socketCtl.Handle())
}
