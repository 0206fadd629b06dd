package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	chat "go-twitarr/internal/pkg/chat/application/domain"
)

// PageThreadInput selects a page of a thread. Start takes priority over
// PostID; with neither, the viewer's stored read position is used.
type PageThreadInput struct {
	ThreadID uuid.UUID
	ViewerID uuid.UUID
	Start    *int
	PostID   *int64
	Limit    *int
}

// PageResult holds the visible posts of one page. Start, Limit and Total are
// in unfiltered post indices.
type PageResult struct {
	Posts     []chat.Post
	Start     int
	Limit     int
	Total     int
	ReadCount int
	Unread    int
	Source    chat.StartSource
}

// PageThreadUseCase returns one page of a thread and advances the viewer's
// read position. Offsets never depend on the viewer's block or mute lists.
type PageThreadUseCase struct {
	Threads
	DefaultLimit int
	MaxLimit     int
	Metrics      PageMetrics
}

func NewPageThreadUseCase(t Threads, defaultLimit, maxLimit int, metrics PageMetrics) *PageThreadUseCase {
	if defaultLimit < 1 {
		defaultLimit = 50
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &PageThreadUseCase{Threads: t, DefaultLimit: defaultLimit, MaxLimit: maxLimit, Metrics: metrics}
}

func (uc *PageThreadUseCase) Execute(ctx context.Context, in PageThreadInput) (res *PageResult, err error) {
	began := time.Now()
	defer func() {
		if uc.Metrics == nil {
			return
		}
		status := "ok"
		if err != nil {
			status = "error"
		}
		uc.Metrics.RecordPageLatency(ctx, time.Since(began), status)
	}()

	viewer, err := uc.Viewers.Get(in.ViewerID)
	if err != nil {
		return nil, err
	}
	c, err := uc.load(ctx, in.ThreadID, in.ViewerID)
	if err != nil {
		return nil, err
	}
	if err := c.CanView(viewer); err != nil {
		return nil, err
	}

	limit := chat.ClampLimit(in.Limit, uc.DefaultLimit, uc.MaxLimit)
	total, err := uc.Repo.CountPosts(ctx, in.ThreadID)
	if err != nil {
		return nil, persistErr(err)
	}
	pivot, err := uc.Repo.FetchPivot(ctx, in.ViewerID, in.ThreadID)
	if err != nil {
		return nil, persistErr(err)
	}

	targetIndex, targetFound := 0, false
	if (in.Start == nil || *in.Start < 0) && in.PostID != nil {
		targetIndex, err = uc.Repo.IndexOfPost(ctx, in.ThreadID, *in.PostID)
		switch {
		case err == nil:
			targetFound = true
		case errors.Is(err, chat.ErrPostNotFound):
			// A deleted or foreign target falls back to the read position.
		default:
			return nil, persistErr(err)
		}
	}
	start, source := chat.ResolveStart(in.Start, targetIndex, targetFound, pivot, limit, total)

	var window []chat.Post
	if source == chat.StartTargetPost {
		window, err = uc.Repo.FetchPostsFrom(ctx, in.ThreadID, *in.PostID, limit)
	} else {
		window, err = uc.Repo.FetchPostsInRange(ctx, in.ThreadID, start, start+limit)
	}
	if err != nil {
		return nil, persistErr(err)
	}

	readCount, save := chat.NextReadCount(pivot, start, limit, total)
	stored := chat.ReadPivot{UserID: in.ViewerID, ThreadID: in.ThreadID, ReadCount: readCount}
	if pivot != nil {
		stored.HiddenCount = pivot.HiddenCount
	}
	if save {
		stored, err = uc.Repo.AdvanceReadCount(ctx, in.ViewerID, in.ThreadID, readCount, total)
		if err != nil {
			return nil, persistErr(err)
		}
	}

	return &PageResult{
		Posts:     chat.VisiblePosts(window, viewer, c.Thread.FiltersKeywords()),
		Start:     start,
		Limit:     limit,
		Total:     total,
		ReadCount: stored.ReadCount,
		Unread:    stored.Unread(total),
		Source:    source,
	}, nil
}
