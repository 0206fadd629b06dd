package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"go-twitarr/internal/infrastructure/realtime"
	chat "go-twitarr/internal/pkg/chat/application/domain"
	"go-twitarr/internal/pkg/chat/application/usecase"
	relation "go-twitarr/internal/pkg/relation/application/domain"
)

// ChatSocketController handles the websocket endpoint for realtime thread traffic.
type ChatSocketController struct {
	router          *realtime.Router
	sendMessageUC   *usecase.SendMessageUseCase
	joinRoomUC      *usecase.JoinConversationUseCase
	logger          *slog.Logger
	inflightTimeout time.Duration
}

func NewChatSocketController(router *realtime.Router, send *usecase.SendMessageUseCase, join *usecase.JoinConversationUseCase, logger *slog.Logger) *ChatSocketController {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatSocketController{
		router:          router,
		sendMessageUC:   send,
		joinRoomUC:      join,
		logger:          logger.With("component", "chat-socket"),
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The auth proxy in front of the API enforces origin policy.
		return true
	},
}

type inboundFrame struct {
	Type     string    `json:"type"`
	ThreadID uuid.UUID `json:"thread_id,omitempty"`
	Text     string    `json:"text,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type ackFrame struct {
	Type     string     `json:"type"`
	ThreadID *uuid.UUID `json:"thread_id,omitempty"`
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades HTTP connections to websocket and processes frames until the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.Query("user_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a uuid"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			ctl.logger.Debug("websocket upgrade failed", "user_id", userID, "error", err)
			return
		}

		conn := realtime.NewConnection(userID, ws)
		ctl.router.Attach(conn)
		defer func() {
			ctl.router.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		ctl.send(conn, ackFrame{Type: "connected"})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				ctl.replyError(conn, "read_error", err.Error())
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}
			if frame.ThreadID == uuid.Nil {
				ctl.replyError(conn, "bad_request", "thread_id is required")
				continue
			}

			switch frame.Type {
			case "join":
				ctl.handleJoin(c.Request.Context(), conn, frame)
			case "leave":
				ctl.router.Leave(frame.ThreadID, conn)
				ctl.send(conn, ackFrame{Type: "left", ThreadID: &frame.ThreadID})
			case "message":
				ctl.handleMessage(c.Request.Context(), conn, frame)
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

func (ctl *ChatSocketController) handleJoin(parent context.Context, conn *realtime.Connection, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(parent, ctl.inflightTimeout)
	defer cancel()

	err := ctl.joinRoomUC.Execute(ctx, usecase.JoinConversationInput{ThreadID: frame.ThreadID, UserID: conn.UserID})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}
	ctl.router.Join(frame.ThreadID, conn)
	ctl.send(conn, ackFrame{Type: "joined", ThreadID: &frame.ThreadID})
}

// handleMessage stores the post synchronously; the use case's notifier fans
// it out to the room, including the sender when joined.
func (ctl *ChatSocketController) handleMessage(parent context.Context, conn *realtime.Connection, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(parent, ctl.inflightTimeout)
	defer cancel()

	post, err := ctl.sendMessageUC.Execute(ctx, usecase.SendMessageInput{
		ThreadID: frame.ThreadID,
		AuthorID: conn.UserID,
		Text:     frame.Text,
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}
	ctl.logger.Debug("socket post stored", "thread_id", frame.ThreadID, "post_id", post.ID)
}

func (ctl *ChatSocketController) handleUseCaseError(conn *realtime.Connection, err error) {
	switch {
	case errors.Is(err, usecase.ErrPersistence), errors.Is(err, relation.ErrInvariantViolation):
		ctl.logger.Error("socket request failed", "user_id", conn.UserID, "error", err)
		ctl.replyError(conn, "internal_error", "unexpected server error")
	case errors.Is(err, chat.ErrNotParticipant), errors.Is(err, chat.ErrThreadUnavailable):
		ctl.replyError(conn, "forbidden", err.Error())
	case errors.Is(err, chat.ErrThreadNotFound):
		ctl.replyError(conn, "not_found", err.Error())
	default:
		ctl.replyError(conn, "bad_request", err.Error())
	}
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, code string, message string) {
	ctl.send(conn, errorFrame{Type: "error", Code: code, Error: message})
}

func (ctl *ChatSocketController) send(conn *realtime.Connection, frame any) {
	if err := conn.SendJSON(frame); err != nil {
		ctl.logger.Debug("socket reply dropped", "session_id", conn.SessionID, "error", err)
	}
}
