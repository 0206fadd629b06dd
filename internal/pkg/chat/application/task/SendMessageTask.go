package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	qport "go-twitarr/internal/infrastructure/queue/port"
	"go-twitarr/internal/pkg/chat/application/usecase"
)

// SendMessageTaskType is the queue task name for posting into a thread.
const SendMessageTaskType = "chat:send_message"

// SendMessageTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type SendMessageTaskPayload struct {
	ThreadID uuid.UUID `json:"threadId"`
	AuthorID uuid.UUID `json:"authorId"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sentAt"`
}

// Sender enqueues posts for background storage.
type Sender struct {
	Q qport.Client
}

func NewSender(client qport.Client) *Sender {
	return &Sender{Q: client}
}

// Enqueue queues a post. A non-empty clientKey deduplicates resubmissions of
// the same post by the same author.
func (s *Sender) Enqueue(ctx context.Context, p SendMessageTaskPayload, clientKey string) (string, error) {
	if p.SentAt.IsZero() {
		p.SentAt = time.Now().UTC()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode send payload: %w", err)
	}
	opts := qport.EnqueueOption{Queue: "chat", MaxRetry: 20}
	if clientKey != "" {
		opts.TaskID = fmt.Sprintf("post:%s:%s:%s", p.ThreadID, p.AuthorID, clientKey)
	}
	return s.Q.Enqueue(ctx, qport.Task{Type: SendMessageTaskType, Payload: b}, opts)
}

// RegisterSendMessageTask binds the task handler to the provided server.
// Rejections from the thread rules are final; storage failures are retried.
func RegisterSendMessageTask(srv qport.Server, uc *usecase.SendMessageUseCase, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "send-message")

	srv.Register(SendMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p SendMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return fmt.Errorf("%w: %v", qport.ErrSkipRetry, err)
		}

		// give DB a reasonable time budget per task execution
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		post, err := uc.Execute(ctx, usecase.SendMessageInput{
			ThreadID: p.ThreadID,
			AuthorID: p.AuthorID,
			Text:     p.Text,
			SentAt:   p.SentAt,
		})
		if err != nil {
			if errors.Is(err, usecase.ErrPersistence) {
				return err
			}
			logger.Warn("queued post rejected", "thread_id", p.ThreadID, "author_id", p.AuthorID, "error", err)
			return fmt.Errorf("%w: %v", qport.ErrSkipRetry, err)
		}
		logger.Debug("queued post stored", "thread_id", p.ThreadID, "post_id", post.ID)
		return nil
	})
}
