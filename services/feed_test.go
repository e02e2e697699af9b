package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genz-feed/api-go/models"
	"github.com/genz-feed/api-go/store"
)

func TestFeedService_PageCoversEveryPostOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	const total = 12
	for i := 0; i < total; i++ {
		env.createPost(t, 1, "post")
	}

	seen := map[uint]bool{}
	var order []uint
	for page := 1; ; page++ {
		p, err := env.feed.Page(ctx, page, DefaultPageSize)
		require.NoError(t, err)
		assert.Equal(t, int64(total), p.Total)
		assert.Equal(t, int64(3), p.TotalPages)
		for _, post := range p.Items {
			assert.False(t, seen[post.ID], "post %d returned twice", post.ID)
			seen[post.ID] = true
			order = append(order, post.ID)
		}
		if !p.HasMore {
			assert.Equal(t, 3, page)
			break
		}
	}
	assert.Len(t, seen, total)

	// newest first
	for i := 1; i < len(order); i++ {
		assert.Greater(t, order[i-1], order[i])
	}
}

func TestFeedService_PageValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	tests := []struct {
		name       string
		page, size int
		field      string
	}{
		{"page zero", 0, 5, "page"},
		{"negative page", -1, 5, "page"},
		{"huge page", maxPageNumber + 1, 5, "page"},
		{"size zero", 1, 0, "limit"},
		{"size over max", 1, MaxPageSize + 1, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.feed.Page(ctx, tt.page, tt.size)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestFeedService_PageBeyondEnd(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createPost(t, 1, "only")

	p, err := env.feed.Page(context.Background(), 4, 5)
	require.NoError(t, err)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
	assert.False(t, p.HasMore)
}

func TestFeedService_CursorStableUnderInsert(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	var original []uint
	for i := 0; i < 11; i++ {
		original = append(original, env.createPost(t, 1, "post").ID)
	}

	first, err := env.feed.CursorPage(ctx, "", 4)
	require.NoError(t, err)
	require.NotNil(t, first.NextCursor)
	visited := postIDs(first.Items)

	// A new post lands at the head while the reader is scrolling.
	fresh := env.createPost(t, 2, "breaking")

	cursor := *first.NextCursor
	for {
		page, err := env.feed.CursorPage(ctx, cursor, 4)
		require.NoError(t, err)
		visited = append(visited, postIDs(page.Items)...)
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	assert.NotContains(t, visited, fresh.ID)
	assert.ElementsMatch(t, original, visited)
	for i := 1; i < len(visited); i++ {
		assert.Greater(t, visited[i-1], visited[i])
	}
}

func TestFeedService_CursorTieBreakOnSameTimestamp(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env := newTestEnv(t, func() time.Time { return fixed })
	ctx := context.Background()

	var want []uint
	for i := 0; i < 7; i++ {
		want = append([]uint{env.createPost(t, 1, "same instant").ID}, want...)
	}

	var got []uint
	cursor := ""
	for {
		page, err := env.feed.CursorPage(ctx, cursor, 3)
		require.NoError(t, err)
		got = append(got, postIDs(page.Items)...)
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}
	assert.Equal(t, want, got)
}

func TestFeedService_CursorExactMultipleHasNoTrailingCursor(t *testing.T) {
	env := newTestEnv(t, nil)
	for i := 0; i < 4; i++ {
		env.createPost(t, 1, "post")
	}

	page, err := env.feed.CursorPage(context.Background(), "", 4)
	require.NoError(t, err)
	assert.Len(t, page.Items, 4)
	assert.Nil(t, page.NextCursor)
}

func TestFeedService_CursorRejectsForgery(t *testing.T) {
	env := newTestEnv(t, nil)
	var last *models.Post
	for i := 0; i < 3; i++ {
		last = env.createPost(t, 1, "post")
	}

	forged := NewCursorCodec("attacker").Encode(store.KeyOf(last))
	_, err := env.feed.CursorPage(context.Background(), forged, 2)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.feed.CursorPage(context.Background(), "", 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFeedService_EmptyFeed(t *testing.T) {
	env := newTestEnv(t, nil)
	page, err := env.feed.CursorPage(context.Background(), "", DefaultPageSize)
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.NextCursor)
}
