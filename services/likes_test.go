package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/genz-feed/api-go/models"
)

func TestLikeService_LikeAndUnlike(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	post := env.createPost(t, 1, "hello")

	count, err := env.likes.Like(ctx, post.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = env.likes.Like(ctx, post.ID, 2)
	assert.ErrorIs(t, err, ErrAlreadyLiked)

	status, err := env.likes.Status(ctx, post.ID, 2)
	require.NoError(t, err)
	assert.True(t, status.Liked)
	assert.Equal(t, int64(1), status.LikeCount)

	count, err = env.likes.Unlike(ctx, post.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	status, err = env.likes.Status(ctx, post.ID, 2)
	require.NoError(t, err)
	assert.False(t, status.Liked)
}

func TestLikeService_UnlikeIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	post := env.createPost(t, 1, "hello")

	_, err := env.likes.Like(ctx, post.ID, 3)
	require.NoError(t, err)
	_, err = env.likes.Like(ctx, post.ID, 4)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		count, err := env.likes.Unlike(ctx, post.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	}

	// never liked at all
	count, err := env.likes.Unlike(ctx, post.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLikeService_MissingPost(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.likes.Like(ctx, 404, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.likes.Status(ctx, 404, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLikeService_UnlikeDeletedPostIsNoop(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	post := env.createPost(t, 1, "gone soon")

	_, err := env.likes.Like(ctx, post.ID, 2)
	require.NoError(t, err)
	require.NoError(t, env.posts.Delete(ctx, post.ID, 1))

	count, err := env.likes.Unlike(ctx, post.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = env.likes.Unlike(ctx, 404, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestLikeService_ConcurrentLikesSameUser(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	post := env.createPost(t, 1, "race")

	const attempts = 32
	var ok, dup atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.likes.Like(ctx, post.ID, 2)
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, ErrAlreadyLiked):
				dup.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(attempts-1), dup.Load())

	got, err := env.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikeCount)
}

func TestLikeService_CounterMatchesRowsUnderConcurrency(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	post := env.createPost(t, 1, "busy")

	const users = 40
	var wg sync.WaitGroup
	for u := uint(1); u <= users; u++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, err := env.likes.Like(ctx, post.ID, userID)
			assert.NoError(t, err)
			// odd users change their mind
			if userID%2 == 1 {
				_, err = env.likes.Unlike(ctx, post.ID, userID)
				assert.NoError(t, err)
			}
		}(u)
	}
	wg.Wait()

	got, err := env.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(users/2), got.LikeCount)

	var liked int64
	for u := uint(1); u <= users; u++ {
		has, err := env.store.HasLike(ctx, post.ID, u)
		require.NoError(t, err)
		if has {
			liked++
		}
	}
	assert.Equal(t, got.LikeCount, liked)
}

type mockLikeStore struct {
	mock.Mock
}

func (m *mockLikeStore) AddLike(ctx context.Context, postID, userID uint, at time.Time) (int64, error) {
	args := m.Called(ctx, postID, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLikeStore) RemoveLike(ctx context.Context, postID, userID uint) (int64, bool, error) {
	args := m.Called(ctx, postID, userID)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *mockLikeStore) HasLike(ctx context.Context, postID, userID uint) (bool, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLikeStore) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.Post), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestLikeService_StorageFailureIsNotSuccess(t *testing.T) {
	s := new(mockLikeStore)
	s.On("AddLike", mock.Anything, uint(1), uint(2), mock.Anything).Return(int64(0), errBackend)
	s.On("RemoveLike", mock.Anything, uint(1), uint(2)).Return(int64(0), false, errBackend)

	svc := NewLikeService(s)
	_, err := svc.Like(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, errBackend)

	_, err = svc.Unlike(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrStorage)
	s.AssertExpectations(t)
}
