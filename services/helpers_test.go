package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/genz-feed/api-go/models"
	"github.com/genz-feed/api-go/storage"
	"github.com/genz-feed/api-go/store"
)

// stepClock returns strictly increasing timestamps, one step apart.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

type fakeImageStore struct {
	mu      sync.Mutex
	err     error
	stored  []string
	deleted []string
}

func (f *fakeImageStore) Store(ctx context.Context, ownerID uint, img storage.Image) (string, error) {
	if _, err := storage.Validate(img); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://cdn.test/" + img.FileName
	f.stored = append(f.stored, url)
	return url, nil
}

func (f *fakeImageStore) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

var errBackend = errors.New("connection refused")

type testEnv struct {
	store    *store.MemoryStore
	images   *fakeImageStore
	posts    *PostService
	likes    *LikeService
	comments *CommentService
	feed     *FeedService
}

func newTestEnv(t *testing.T, now func() time.Time) *testEnv {
	t.Helper()
	if now == nil {
		now = newStepClock(time.Second).Now
	}
	s := store.NewMemoryStore()
	images := &fakeImageStore{}
	return &testEnv{
		store:    s,
		images:   images,
		posts:    NewPostService(s, images, WithClock(now)),
		likes:    NewLikeService(s, WithClock(now)),
		comments: NewCommentService(s, WithClock(now)),
		feed:     NewFeedService(s, NewCursorCodec("test-secret")),
	}
}

func (e *testEnv) createPost(t *testing.T, owner uint, title string) *models.Post {
	t.Helper()
	post, err := e.posts.Create(context.Background(), owner, CreatePostInput{Title: title, Content: "content of " + title})
	require.NoError(t, err)
	return post
}

func postIDs(posts []models.Post) []uint {
	out := make([]uint, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
