package repository

import (
	"context"
	"errors"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments and their
// likes.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment, postSlug string) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, currentUserID uint) ([]models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, comment *models.Comment, postSlug string) error
	ToggleLike(ctx context.Context, commentID, userID uint) (bool, error)
	LikeCount(ctx context.Context, commentID uint) (int, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// commentDetails selects comments.* plus like_count, reply_count and, for a
// known requester, whether they liked each row. Anonymous requests get a
// constant false instead of the EXISTS probe.
func commentDetails(userID uint) func(*gorm.DB) *gorm.DB {
	sel := `comments.*,
	(SELECT COUNT(*) FROM comment_likes
	 WHERE comment_likes.comment_id = comments.id) as like_count,
	(SELECT COUNT(*) FROM comments replies
	 WHERE replies.parent_id = comments.id
	   AND replies.deleted_at IS NULL
	   AND replies.approved = TRUE) as reply_count`

	return func(db *gorm.DB) *gorm.DB {
		if userID == 0 {
			return db.Select(sel + ", FALSE as liked")
		}
		return db.Select(sel+`,
	EXISTS (SELECT 1 FROM comment_likes cl
	 WHERE cl.comment_id = comments.id AND cl.user_id = ?) as liked`, userID)
	}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment, postSlug string) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	// the cached post detail carries the comment count
	cache.InvalidatePost(ctx, postSlug)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Comment, error) {
	var comment models.Comment
	err := readDB(r.db).WithContext(ctx).
		Scopes(commentDetails(currentUserID)).
		Preload("Author").
		Preload("Post").
		First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

// ListByPost returns approved top-level comments oldest first, each with its
// approved replies nested in posting order.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, currentUserID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := readDB(r.db).WithContext(ctx).
		Scopes(commentDetails(currentUserID)).
		Where("comments.post_id = ? AND comments.parent_id IS NULL AND comments.approved = TRUE", postID).
		Preload("Author").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return commentDetails(currentUserID)(db).
				Where("comments.approved = TRUE").
				Order("comments.created_at ASC")
		}).
		Preload("Replies.Author").
		Order("comments.created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Post", "Replies").Save(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the comment, its replies and every like on either, in one
// transaction.
func (r *commentRepository) Delete(ctx context.Context, comment *models.Comment, postSlug string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(`DELETE FROM comment_likes
			WHERE comment_id = ?
			   OR comment_id IN (SELECT id FROM comments WHERE parent_id = ?)`,
			comment.ID, comment.ID).Error
		if err != nil {
			return err
		}
		if err := tx.Where("parent_id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(comment).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}

	cache.InvalidatePost(ctx, postSlug)
	return nil
}

// ToggleLike inserts a like when the user has none, relying on the unique
// (user_id, comment_id) index to spot the existing one, and removes it
// otherwise. Returns the resulting liked state.
func (r *commentRepository) ToggleLike(ctx context.Context, commentID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`INSERT INTO comment_likes (user_id, comment_id, created_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, comment_id) DO NOTHING`, userID, commentID)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.CommentLike{}).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return false, nil
}

func (r *commentRepository) LikeCount(ctx context.Context, commentID uint) (int, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.CommentLike{}).
		Where("comment_id = ?", commentID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return int(count), nil
}
