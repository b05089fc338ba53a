package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// SimilarPostsLimit caps the "similar posts" strip on the detail page.
const SimilarPostsLimit = 4

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

type PostService struct {
	postRepo repository.PostRepository
	tagRepo  repository.TagRepository
	userRepo repository.UserRepository
}

type CreatePostInput struct {
	AuthorID uint
	Title    string
	Content  string
	Excerpt  string
	Status   string
	Tags     []string
}

// UpdatePostInput edits an existing post. A nil Tags slice leaves the tag set
// unchanged; an empty one clears it.
type UpdatePostInput struct {
	UserID  uint
	Slug    string
	Title   string
	Content string
	Excerpt string
	Status  string
	Tags    []string
}

func NewPostService(
	postRepo repository.PostRepository,
	tagRepo repository.TagRepository,
	userRepo repository.UserRepository,
) *PostService {
	return &PostService{postRepo: postRepo, tagRepo: tagRepo, userRepo: userRepo}
}

// ListPosts returns published posts, newest first, optionally narrowed by tag
// or search query.
func (s *PostService) ListPosts(ctx context.Context, opts repository.PostListOptions) ([]models.Post, int64, error) {
	return s.postRepo.ListPublished(ctx, opts)
}

// GetPost returns the post behind slug. Drafts are visible to their author
// only; everyone else gets a 404 indistinguishable from a missing post.
// Published views bump the view counter.
func (s *PostService) GetPost(ctx context.Context, slug string, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !post.Published() {
		if viewerID == 0 || viewerID != post.AuthorID {
			return nil, models.NewNotFoundError("Post", slug)
		}
		return post, nil
	}

	if err := s.postRepo.IncrementViewCount(ctx, post.ID); err != nil {
		return nil, err
	}
	post.ViewCount++
	return post, nil
}

// SimilarPosts returns up to four published posts sharing tags with the one
// behind slug, most shared tags first.
func (s *PostService) SimilarPosts(ctx context.Context, slug string, viewerID uint) ([]models.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !post.Published() && viewerID != post.AuthorID {
		return nil, models.NewNotFoundError("Post", slug)
	}

	tagIDs := make([]uint, 0, len(post.Tags))
	for _, t := range post.Tags {
		tagIDs = append(tagIDs, t.ID)
	}
	return s.postRepo.Similar(ctx, post.ID, tagIDs, SimilarPostsLimit)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	status := in.Status
	if status == "" {
		status = models.PostStatusDraft
	}

	fields := s.validatePost(in.Title, in.Content, status, in.Tags)
	if fields.HasErrors() {
		return nil, models.NewFieldValidationError(fields)
	}

	title := strings.TrimSpace(in.Title)
	slug, err := s.uniqueSlug(ctx, title, 0)
	if err != nil {
		return nil, err
	}

	tags, err := s.tagRepo.FindOrCreate(ctx, in.Tags)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:    title,
		Slug:     slug,
		Content:  in.Content,
		Excerpt:  deriveExcerpt(in.Excerpt, in.Content),
		Status:   status,
		AuthorID: in.AuthorID,
		Tags:     tags,
	}
	if status == models.PostStatusPublished {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetBySlug(ctx, post.Slug)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, in.Slug)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	status := in.Status
	if status == "" {
		status = post.Status
	}

	fields := s.validatePost(in.Title, in.Content, status, in.Tags)
	if fields.HasErrors() {
		return nil, models.NewFieldValidationError(fields)
	}

	oldSlug := post.Slug
	title := strings.TrimSpace(in.Title)
	if title != post.Title {
		slug, err := s.uniqueSlug(ctx, title, post.ID)
		if err != nil {
			return nil, err
		}
		post.Slug = slug
	}
	post.Title = title
	post.Content = in.Content
	post.Excerpt = deriveExcerpt(in.Excerpt, in.Content)

	if status == models.PostStatusPublished && post.PublishedAt == nil {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}
	post.Status = status

	if in.Tags != nil {
		tags, err := s.tagRepo.FindOrCreate(ctx, in.Tags)
		if err != nil {
			return nil, err
		}
		post.Tags = tags
	}

	if err := s.postRepo.Update(ctx, post, oldSlug); err != nil {
		return nil, err
	}
	return s.postRepo.GetBySlug(ctx, post.Slug)
}

func (s *PostService) DeletePost(ctx context.Context, slug string, userID uint) error {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	return s.postRepo.Delete(ctx, post)
}

// ListMyPosts returns the caller's posts, drafts included.
func (s *PostService) ListMyPosts(ctx context.Context, userID uint, limit, offset int) ([]models.Post, int64, error) {
	return s.postRepo.ListByAuthor(ctx, userID, true, limit, offset)
}

// ListUserPosts returns another user's published posts.
func (s *PostService) ListUserPosts(ctx context.Context, username string, limit, offset int) ([]models.Post, int64, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	if user == nil {
		return nil, 0, models.NewNotFoundError("User", username)
	}
	return s.postRepo.ListByAuthor(ctx, user.ID, false, limit, offset)
}

func (s *PostService) validatePost(title, content, status string, tags []string) models.FieldErrors {
	fields := models.FieldErrors{}
	if err := validation.ValidatePostTitle(title); err != nil {
		fields.Add("title", err.Error())
	}
	if err := validation.ValidatePostContent(content); err != nil {
		fields.Add("content", err.Error())
	}
	if status != models.PostStatusDraft && status != models.PostStatusPublished {
		fields.Add("status", "Status must be either draft or published.")
	}
	for _, name := range tags {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if err := validation.ValidateTagName(name); err != nil {
			fields.Add("tags", err.Error())
		}
	}
	return fields
}

// uniqueSlug slugifies the title and appends -1, -2, ... until the slug is
// free. excludeID keeps a post from colliding with itself on rename.
func (s *PostService) uniqueSlug(ctx context.Context, title string, excludeID uint) (string, error) {
	base := slugify(title)
	slug := base
	for i := 1; ; i++ {
		taken, err := s.postRepo.SlugTaken(ctx, slug, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStripRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "post"
	}
	if len(slug) > 240 {
		slug = strings.Trim(slug[:240], "-")
	}
	return slug
}

// deriveExcerpt uses the explicit excerpt when given, otherwise the leading
// content truncated to fit the 300-char column with a trailing ellipsis.
func deriveExcerpt(excerpt, content string) string {
	if trimmed := strings.TrimSpace(excerpt); trimmed != "" {
		return trimmed
	}
	runes := []rune(content)
	if len(runes) <= 300 {
		return content
	}
	return string(runes[:297]) + "..."
}
