package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/genz-feed/api-go/models"
)

type likeKey struct {
	postID uint
	userID uint
}

// MemoryStore is an in-process Store. A single lock guards all state, which
// trivially serializes mutations on the same post. Values are copied in and
// out so callers never share memory with the store.
type MemoryStore struct {
	mu sync.RWMutex

	nextUserID    uint
	nextPostID    uint
	nextLikeID    uint
	nextCommentID uint

	users    map[uint]models.User
	posts    map[uint]models.Post
	likes    map[likeKey]models.Like
	comments map[uint][]models.Comment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uint]models.User),
		posts:    make(map[uint]models.Post),
		likes:    make(map[likeKey]models.Like),
		comments: make(map[uint][]models.Comment),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreatePost(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPostID++
	post.ID = s.nextPostID
	s.posts[post.ID] = *post
	return nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) DeletePost(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	for k := range s.likes {
		if k.postID == id {
			delete(s.likes, k)
		}
	}
	delete(s.comments, id)
	delete(s.posts, id)
	return nil
}

func (s *MemoryStore) ListPostsByOwner(ctx context.Context, ownerID uint) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]models.Post, 0)
	for _, p := range s.sortedPostsLocked() {
		if p.UserID == ownerID {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func (s *MemoryStore) AddLike(ctx context.Context, postID, userID uint, at time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return 0, ErrNotFound
	}
	key := likeKey{postID: postID, userID: userID}
	if _, exists := s.likes[key]; exists {
		return 0, ErrDuplicate
	}

	s.nextLikeID++
	s.likes[key] = models.Like{ID: s.nextLikeID, PostID: postID, UserID: userID, CreatedAt: at}
	post.LikeCount++
	s.posts[postID] = post
	return post.LikeCount, nil
}

func (s *MemoryStore) RemoveLike(ctx context.Context, postID, userID uint) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return 0, false, nil
	}
	key := likeKey{postID: postID, userID: userID}
	if _, exists := s.likes[key]; !exists {
		return post.LikeCount, false, nil
	}

	delete(s.likes, key)
	if post.LikeCount > 0 {
		post.LikeCount--
	}
	s.posts[postID] = post
	return post.LikeCount, true, nil
}

func (s *MemoryStore) HasLike(ctx context.Context, postID, userID uint) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.likes[likeKey{postID: postID, userID: userID}]
	return ok, nil
}

func (s *MemoryStore) AddComment(ctx context.Context, comment *models.Comment) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[comment.PostID]
	if !ok {
		return 0, ErrNotFound
	}

	s.nextCommentID++
	comment.ID = s.nextCommentID
	comment.Author = nil
	s.comments[comment.PostID] = append(s.comments[comment.PostID], *comment)
	comment.Author = s.authorLocked(comment.AuthorID)
	post.CommentCount++
	s.posts[comment.PostID] = post
	return post.CommentCount, nil
}

func (s *MemoryStore) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.posts[postID]; !ok {
		return nil, ErrNotFound
	}
	comments := make([]models.Comment, len(s.comments[postID]))
	copy(comments, s.comments[postID])
	for i := range comments {
		comments[i].Author = s.authorLocked(comments[i].AuthorID)
	}
	sort.SliceStable(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments, nil
}

func (s *MemoryStore) ListPostsPage(ctx context.Context, offset, limit int) ([]models.Post, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sortedPostsLocked()
	total := int64(len(all))
	if offset >= len(all) {
		return []models.Post{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *MemoryStore) ListPostsAfter(ctx context.Context, after *FeedKey, limit int) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]models.Post, 0, limit)
	for _, p := range s.sortedPostsLocked() {
		if len(posts) == limit {
			break
		}
		if after != nil && !after.Before(KeyOf(&p)) {
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *MemoryStore) PostIDs(ctx context.Context, afterID uint, limit int) ([]uint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint, 0, len(s.posts))
	for id := range s.posts {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *MemoryStore) RecountPost(ctx context.Context, postID uint) (Drift, error) {
	if err := ctx.Err(); err != nil {
		return Drift{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return Drift{}, ErrNotFound
	}
	drift := Drift{
		PostID:         postID,
		LikeCount:      post.LikeCount,
		CommentCount:   post.CommentCount,
		ActualComments: int64(len(s.comments[postID])),
	}
	for k := range s.likes {
		if k.postID == postID {
			drift.ActualLikes++
		}
	}
	post.LikeCount = drift.ActualLikes
	post.CommentCount = drift.ActualComments
	s.posts[postID] = post
	return drift, nil
}

// sortedPostsLocked returns a copy of all posts in feed order. Callers hold mu.
func (s *MemoryStore) sortedPostsLocked() []models.Post {
	all := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		return KeyOf(&all[i]).Before(KeyOf(&all[j]))
	})
	return all
}

// authorLocked returns nil for ids with no user row. Callers hold mu.
func (s *MemoryStore) authorLocked(id uint) *models.Author {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return &models.Author{ID: u.ID, Username: u.Username}
}
