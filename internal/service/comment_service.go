package service

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// CommentService handles comment threads and like toggles. notify is
// best-effort fan-out (nil disables it); failures there must never fail the
// triggering request.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	notify      func(ctx context.Context, n *models.Notification)
}

type CreateCommentInput struct {
	UserID   uint
	PostSlug string
	Content  string
}

type CreateReplyInput struct {
	UserID   uint
	ParentID uint
	Content  string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	notify func(ctx context.Context, n *models.Notification),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		notify:      notify,
	}
}

// ListComments returns the approved thread for a post: top-level comments
// oldest first, replies nested. viewerID drives the per-comment liked flag
// and draft visibility.
func (s *CommentService) ListComments(ctx context.Context, postSlug string, viewerID uint) ([]models.Comment, error) {
	post, err := s.visiblePost(ctx, postSlug, viewerID)
	if err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, post.ID, viewerID)
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	post, err := s.visiblePost(ctx, in.PostSlug, in.UserID)
	if err != nil {
		return nil, err
	}

	content, err := validCommentContent(in.Content)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content:  content,
		PostID:   post.ID,
		AuthorID: in.UserID,
		Approved: true,
	}
	if err := s.commentRepo.Create(ctx, comment, post.Slug); err != nil {
		return nil, err
	}
	observability.CommentsCreated.WithLabelValues("comment").Inc()

	s.dispatch(ctx, &models.Notification{
		RecipientID: post.AuthorID,
		ActorID:     in.UserID,
		Verb:        models.VerbCommented,
		TargetType:  models.TargetTypePost,
		TargetID:    post.ID,
	})

	return s.commentRepo.GetByID(ctx, comment.ID, in.UserID)
}

// CreateReply attaches a reply to a top-level comment. Replying to a reply
// flattens onto the original parent so threads stay one level deep; the
// author of the comment actually replied to still gets the notification.
func (s *CommentService) CreateReply(ctx context.Context, in CreateReplyInput) (*models.Comment, error) {
	parent, err := s.commentRepo.GetByID(ctx, in.ParentID, in.UserID)
	if err != nil {
		return nil, err
	}

	content, err := validCommentContent(in.Content)
	if err != nil {
		return nil, err
	}

	threadRootID := parent.ID
	if parent.ParentID != nil {
		threadRootID = *parent.ParentID
	}

	reply := &models.Comment{
		Content:  content,
		PostID:   parent.PostID,
		AuthorID: in.UserID,
		ParentID: &threadRootID,
		Approved: true,
	}
	if err := s.commentRepo.Create(ctx, reply, parent.Post.Slug); err != nil {
		return nil, err
	}
	observability.CommentsCreated.WithLabelValues("reply").Inc()

	s.dispatch(ctx, &models.Notification{
		RecipientID: parent.AuthorID,
		ActorID:     in.UserID,
		Verb:        models.VerbReplied,
		TargetType:  models.TargetTypeComment,
		TargetID:    parent.ID,
	})

	return s.commentRepo.GetByID(ctx, reply.ID, in.UserID)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID, in.UserID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}

	content, err := validCommentContent(in.Content)
	if err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID, in.UserID)
}

// DeleteComment removes a comment along with its replies and likes. Allowed
// for the comment's author and for the author of the post it sits on.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID, in.UserID)
	if err != nil {
		return err
	}
	if comment.AuthorID != in.UserID && comment.Post.AuthorID != in.UserID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.commentRepo.Delete(ctx, comment, comment.Post.Slug)
}

// ToggleLike flips the caller's like on a comment and returns the resulting
// state with the fresh count.
func (s *CommentService) ToggleLike(ctx context.Context, commentID, userID uint) (*models.LikeToggleResult, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}

	liked, err := s.commentRepo.ToggleLike(ctx, comment.ID, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.commentRepo.LikeCount(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	state := "unliked"
	if liked {
		state = "liked"
		s.dispatch(ctx, &models.Notification{
			RecipientID: comment.AuthorID,
			ActorID:     userID,
			Verb:        models.VerbLikedComment,
			TargetType:  models.TargetTypeComment,
			TargetID:    comment.ID,
		})
	}
	observability.CommentLikeToggles.WithLabelValues(state).Inc()

	return &models.LikeToggleResult{Success: true, LikeCount: count, Liked: liked}, nil
}

func (s *CommentService) dispatch(ctx context.Context, n *models.Notification) {
	if s.notify != nil {
		s.notify(ctx, n)
	}
}

// visiblePost resolves a slug the way the detail page does: drafts exist only
// for their author.
func (s *CommentService) visiblePost(ctx context.Context, slug string, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !post.Published() && (viewerID == 0 || viewerID != post.AuthorID) {
		return nil, models.NewNotFoundError("Post", slug)
	}
	return post, nil
}

func validCommentContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if err := validation.ValidateCommentContent(trimmed); err != nil {
		fields := models.FieldErrors{}
		fields.Add("content", err.Error())
		return "", models.NewFieldValidationError(fields)
	}
	return trimmed, nil
}
