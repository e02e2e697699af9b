package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/genz-feed/api-go/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// GormStore is the Postgres-backed entity store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// lockPost loads the post row FOR UPDATE, serializing every counter mutation
// on that post until the surrounding transaction ends.
func lockPost(tx *gorm.DB, id uint) (*models.Post, error) {
	var post models.Post
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormStore) CreatePost(ctx context.Context, post *models.Post) error {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (s *GormStore) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

func (s *GormStore) DeletePost(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, id); err != nil {
			return err
		}

		// Delete likes
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return fmt.Errorf("failed to delete likes: %w", err)
		}

		// Delete comments
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}

		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return nil
	})
}

func (s *GormStore) ListPostsByOwner(ctx context.Context, ownerID uint) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by owner: %w", err)
	}
	return posts, nil
}

func (s *GormStore) AddLike(ctx context.Context, postID, userID uint, at time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if err != nil {
			return err
		}

		like := models.Like{PostID: postID, UserID: userID, CreatedAt: at}
		if err := tx.Create(&like).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("failed to insert like: %w", err)
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", 1)).Error; err != nil {
			return fmt.Errorf("failed to increment like count: %w", err)
		}

		count = post.LikeCount + 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *GormStore) RemoveLike(ctx context.Context, postID, userID uint) (int64, bool, error) {
	var (
		count   int64
		removed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		result := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete like: %w", result.Error)
		}

		count = post.LikeCount
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("GREATEST(like_count - 1, 0)")).Error; err != nil {
			return fmt.Errorf("failed to decrement like count: %w", err)
		}

		removed = true
		if count > 0 {
			count--
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return count, removed, nil
}

func (s *GormStore) HasLike(ctx context.Context, postID, userID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up like: %w", err)
	}
	return n > 0, nil
}

func (s *GormStore) AddComment(ctx context.Context, comment *models.Comment) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, comment.PostID)
		if err != nil {
			return err
		}

		if err := tx.Omit("Author").Create(comment).Error; err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}

		var author models.Author
		if err := tx.Take(&author, comment.AuthorID).Error; err != nil {
			return fmt.Errorf("failed to load comment author: %w", err)
		}
		comment.Author = &author

		if err := tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error; err != nil {
			return fmt.Errorf("failed to increment comment count: %w", err)
		}

		count = post.CommentCount + 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *GormStore) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return tx.Preload("Author").
			Where("post_id = ?", postID).
			Order("created_at ASC, id ASC").
			Find(&comments).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *GormStore) ListPostsPage(ctx context.Context, offset, limit int) ([]models.Post, int64, error) {
	var (
		posts []models.Post
		total int64
	)
	// One snapshot for both the count and the window so hasMore agrees with
	// the items returned.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Count(&total).Error; err != nil {
			return err
		}
		return tx.Order("created_at DESC, id DESC").
			Offset(offset).
			Limit(limit).
			Find(&posts).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list feed page: %w", err)
	}
	return posts, total, nil
}

func (s *GormStore) ListPostsAfter(ctx context.Context, after *FeedKey, limit int) ([]models.Post, error) {
	var posts []models.Post
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if after != nil {
		q = q.Where("(created_at, id) < (?, ?)", after.CreatedAt, after.ID)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list feed after cursor: %w", err)
	}
	return posts, nil
}

func (s *GormStore) PostIDs(ctx context.Context, afterID uint, limit int) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list post ids: %w", err)
	}
	return ids, nil
}

func (s *GormStore) RecountPost(ctx context.Context, postID uint) (Drift, error) {
	var drift Drift
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if err != nil {
			return err
		}

		drift = Drift{PostID: postID, LikeCount: post.LikeCount, CommentCount: post.CommentCount}
		if err := tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&drift.ActualLikes).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&drift.ActualComments).Error; err != nil {
			return err
		}
		if !drift.Drifted() {
			return nil
		}

		return tx.Model(&models.Post{}).Where("id = ?", postID).UpdateColumns(map[string]interface{}{
			"like_count":    drift.ActualLikes,
			"comment_count": drift.ActualComments,
		}).Error
	})
	if err != nil {
		return Drift{}, err
	}
	return drift, nil
}
