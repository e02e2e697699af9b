package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/genz-feed/api-go/metrics"
	"github.com/genz-feed/api-go/models"
	"github.com/genz-feed/api-go/storage"
	"github.com/genz-feed/api-go/store"
)

// MaxTitleLength matches the posts.title column.
const MaxTitleLength = 200

const imageCleanupTimeout = 10 * time.Second

// CreatePostInput is a new post as submitted by its owner.
type CreatePostInput struct {
	Title   string
	Content string
	// Image is optional. When set it must be stored before the post is.
	Image *storage.Image
}

// PostService is the post lifecycle manager.
type PostService struct {
	store  store.PostStore
	images storage.ImageStore
	logger *slog.Logger
	opts   options
}

// NewPostService creates a post service. images may be nil, in which case
// posts with an attached image are rejected with ErrUpload.
func NewPostService(s store.PostStore, images storage.ImageStore, opts ...Option) *PostService {
	o := newOptions(opts)
	return &PostService{store: s, images: images, logger: o.logger, opts: o}
}

func (s *PostService) validate(in *CreatePostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" {
		return NewValidationError("title", "title is required")
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return NewValidationError("title", "title is too long")
	}
	if in.Content == "" {
		return NewValidationError("content", "content is required")
	}
	return nil
}

// Create publishes a post for ownerID with both counters at zero.
func (s *PostService) Create(ctx context.Context, ownerID uint, in CreatePostInput) (post *models.Post, err error) {
	defer func() { metrics.RecordOperation("create_post", resultLabel(err)) }()

	if err := s.validate(&in); err != nil {
		return nil, err
	}

	var imageURL *string
	if in.Image != nil {
		url, err := s.storeImage(ctx, ownerID, *in.Image)
		if err != nil {
			return nil, err
		}
		imageURL = &url
	}

	post = &models.Post{
		UserID:    ownerID,
		Title:     in.Title,
		Content:   in.Content,
		ImageURL:  imageURL,
		CreatedAt: s.opts.now(),
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		s.logger.Error("create post failed", "user_id", ownerID, "error", err)
		if imageURL != nil {
			s.discardImage(*imageURL)
		}
		return nil, storageError("create post", err)
	}

	s.logger.Info("post created", "post_id", post.ID, "user_id", ownerID, "has_image", imageURL != nil)
	return post, nil
}

func (s *PostService) storeImage(ctx context.Context, ownerID uint, img storage.Image) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("%w: image storage is not configured", ErrUpload)
	}
	url, err := s.images.Store(ctx, ownerID, img)
	if err != nil {
		if storage.IsInvalidImage(err) {
			return "", NewValidationError("image", err.Error())
		}
		s.logger.Error("image upload failed", "user_id", ownerID, "error", err)
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}
	return url, nil
}

// discardImage removes an image whose post never got stored, or whose post
// was deleted. Failures only leave an orphaned object behind.
func (s *PostService) discardImage(url string) {
	if s.images == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), imageCleanupTimeout)
	defer cancel()
	if err := s.images.Delete(ctx, url); err != nil {
		s.logger.Warn("failed to delete image", "url", url, "error", err)
	}
}

// GetByID returns the post or ErrNotFound.
func (s *PostService) GetByID(ctx context.Context, postID uint) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, postNotFound(postID)
	}
	if err != nil {
		return nil, storageError("get post", err)
	}
	return post, nil
}

// Delete removes postID together with its likes and comments. Only the
// post's owner may delete it.
func (s *PostService) Delete(ctx context.Context, postID, requesterID uint) (err error) {
	defer func() { metrics.RecordOperation("delete_post", resultLabel(err)) }()

	post, err := s.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != requesterID {
		return fmt.Errorf("%w: only the owner can delete post %d", ErrForbidden, postID)
	}

	err = s.store.DeletePost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return postNotFound(postID)
	}
	if err != nil {
		s.logger.Error("delete post failed", "post_id", postID, "error", err)
		return storageError("delete post", err)
	}

	if post.ImageURL != nil {
		s.discardImage(*post.ImageURL)
	}
	s.logger.Info("post deleted", "post_id", postID, "user_id", requesterID)
	return nil
}

// ListByOwner returns ownerID's posts newest first.
func (s *PostService) ListByOwner(ctx context.Context, ownerID uint) ([]models.Post, error) {
	posts, err := s.store.ListPostsByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageError("list posts by owner", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}
