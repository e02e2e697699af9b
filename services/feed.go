package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/genz-feed/api-go/metrics"
	"github.com/genz-feed/api-go/models"
	"github.com/genz-feed/api-go/store"
)

const (
	DefaultPageSize = 5
	MaxPageSize     = 50
	// maxPageNumber keeps (page-1)*size far from integer overflow.
	maxPageNumber = 1_000_000
)

// Page is one offset-paged window of the feed.
type Page struct {
	Items      []models.Post
	HasMore    bool
	Total      int64
	TotalPages int64
	Page       int
	PageSize   int
}

// CursorPage is one slice of the infinite-scroll feed. NextCursor is nil once
// the feed is exhausted.
type CursorPage struct {
	Items      []models.Post
	NextCursor *string
}

// FeedService is the feed pager. Both modes order posts newest first with
// the post id as tie-break.
//
// Offset paging is best-effort: a post inserted between two Page calls shifts
// every later window by one, so the caller may see an item twice. CursorPage
// resumes from the last returned (createdAt, id) and is unaffected by inserts.
type FeedService struct {
	store   store.FeedStore
	cursors *CursorCodec
	logger  *slog.Logger
}

func NewFeedService(s store.FeedStore, cursors *CursorCodec, opts ...Option) *FeedService {
	o := newOptions(opts)
	return &FeedService{store: s, cursors: cursors, logger: o.logger}
}

func validatePageSize(size int) error {
	if size < 1 {
		return NewValidationError("limit", "page size must be at least 1")
	}
	if size > MaxPageSize {
		return NewValidationError("limit", "page size must be at most 50")
	}
	return nil
}

// Page returns page number pageNumber (1-based) of size pageSize.
func (s *FeedService) Page(ctx context.Context, pageNumber, pageSize int) (*Page, error) {
	defer metrics.ObserveFeedPage("offset", time.Now())

	if pageNumber < 1 {
		return nil, NewValidationError("page", "page must be at least 1")
	}
	if pageNumber > maxPageNumber {
		return nil, NewValidationError("page", "page is out of range")
	}
	if err := validatePageSize(pageSize); err != nil {
		return nil, err
	}

	skip := (pageNumber - 1) * pageSize
	items, total, err := s.store.ListPostsPage(ctx, skip, pageSize)
	if err != nil {
		s.logger.Error("feed page failed", "page", pageNumber, "error", err)
		return nil, storageError("list feed", err)
	}
	if items == nil {
		items = []models.Post{}
	}

	return &Page{
		Items:      items,
		HasMore:    int64(skip+len(items)) < total,
		Total:      total,
		TotalPages: (total + int64(pageSize) - 1) / int64(pageSize),
		Page:       pageNumber,
		PageSize:   pageSize,
	}, nil
}

// CursorPage returns up to pageSize posts strictly older than afterCursor.
// An empty cursor starts at the newest post.
func (s *FeedService) CursorPage(ctx context.Context, afterCursor string, pageSize int) (*CursorPage, error) {
	defer metrics.ObserveFeedPage("cursor", time.Now())

	if err := validatePageSize(pageSize); err != nil {
		return nil, err
	}
	after, err := s.cursors.Decode(afterCursor)
	if err != nil {
		return nil, err
	}

	// Fetch one extra row to learn whether another page exists.
	items, err := s.store.ListPostsAfter(ctx, after, pageSize+1)
	if err != nil {
		s.logger.Error("feed cursor page failed", "error", err)
		return nil, storageError("list feed", err)
	}

	page := &CursorPage{Items: items}
	if len(items) > pageSize {
		page.Items = items[:pageSize]
		next := s.cursors.Encode(store.KeyOf(&page.Items[pageSize-1]))
		page.NextCursor = &next
	}
	if page.Items == nil {
		page.Items = []models.Post{}
	}
	return page, nil
}
