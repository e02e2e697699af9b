package store_test

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/genz-feed/api-go/migrations"
	"github.com/genz-feed/api-go/models"
	"github.com/genz-feed/api-go/store"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupGormStore connects to TEST_DATABASE_URL, resets the schema and returns
// a fresh store. Tests are skipped when no database is configured.
func setupGormStore(t *testing.T) *store.GormStore {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres store tests")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())

	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Reset(sqlDB, "."))
	require.NoError(t, goose.Up(sqlDB, "."))

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	s := store.NewGormStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createUser(t *testing.T, s *store.GormStore, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestGormStore_LikeLifecycle(t *testing.T) {
	s := setupGormStore(t)
	ctx := context.Background()

	owner := createUser(t, s, "owner")
	liker := createUser(t, s, "liker")

	post := &models.Post{UserID: owner.ID, Title: "hello", Content: "world", CreatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	require.NoError(t, s.CreatePost(ctx, post))

	n, err := s.AddLike(ctx, post.ID, liker.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.AddLike(ctx, post.ID, liker.ID, time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrDuplicate)

	n, removed, err := s.RemoveLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, int64(0), n)

	n, removed, err = s.RemoveLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, int64(0), n)

	_, err = s.AddLike(ctx, post.ID+1000, liker.ID, time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, removed, err = s.RemoveLike(ctx, post.ID+1000, liker.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, int64(0), n)
}

func TestGormStore_ConcurrentLikes(t *testing.T) {
	s := setupGormStore(t)
	ctx := context.Background()

	owner := createUser(t, s, "owner")
	liker := createUser(t, s, "liker")
	post := &models.Post{UserID: owner.ID, Title: "t", Content: "c", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreatePost(ctx, post))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddLike(ctx, post.ID, liker.ID, time.Now().UTC())
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, store.ErrDuplicate)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikeCount)

	d, err := s.RecountPost(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, d.Drifted())
}

func TestGormStore_CommentsAndCascade(t *testing.T) {
	s := setupGormStore(t)
	ctx := context.Background()

	owner := createUser(t, s, "owner")
	post := &models.Post{UserID: owner.ID, Title: "t", Content: "c", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreatePost(ctx, post))

	for _, text := range []string{"one", "two", "three"} {
		c := &models.Comment{PostID: post.ID, AuthorID: owner.ID, Content: text, CreatedAt: time.Now().UTC()}
		_, err := s.AddComment(ctx, c)
		require.NoError(t, err)
		require.NotNil(t, c.Author)
		assert.Equal(t, "owner", c.Author.Username)
	}

	comments, err := s.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "one", comments[0].Content)
	require.NotNil(t, comments[0].Author)
	assert.Equal(t, "owner", comments[0].Author.Username)

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.CommentCount)

	require.NoError(t, s.DeletePost(ctx, post.ID))
	_, err = s.ListComments(ctx, post.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGormStore_ConcurrentComments(t *testing.T) {
	s := setupGormStore(t)
	ctx := context.Background()

	owner := createUser(t, s, "owner")
	post := &models.Post{UserID: owner.ID, Title: "t", Content: "c", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreatePost(ctx, post))

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddComment(ctx, &models.Comment{PostID: post.ID, AuthorID: owner.ID, Content: "hi", CreatedAt: time.Now().UTC()})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(writers), got.CommentCount)

	comments, err := s.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, comments, writers)
}

func TestGormStore_KeysetPaging(t *testing.T) {
	s := setupGormStore(t)
	ctx := context.Background()

	owner := createUser(t, s, "owner")
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var created []uint
	for i := 0; i < 5; i++ {
		p := &models.Post{UserID: owner.ID, Title: "t", Content: "c", CreatedAt: at.Add(time.Duration(i/2) * time.Second)}
		require.NoError(t, s.CreatePost(ctx, p))
		created = append(created, p.ID)
	}

	first, err := s.ListPostsAfter(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	key := store.KeyOf(&first[1])
	rest, err := s.ListPostsAfter(ctx, &key, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 3)

	seen := map[uint]bool{}
	for _, p := range append(first, rest...) {
		assert.False(t, seen[p.ID], "post %d returned twice", p.ID)
		seen[p.ID] = true
	}
	assert.Len(t, seen, len(created))
}
