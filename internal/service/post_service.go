package service

import (
	"context"
	"strings"

	"miniblog/internal/cache"
	"miniblog/internal/models"
	"miniblog/internal/observability"
	"miniblog/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// PageSize is the fixed number of posts per listing page.
const PageSize = 5

const (
	msgTitleRequired   = "Title is required"
	msgOnlyCreatorEdit = "Only the creator can update this post"
	msgOnlyCreatorDrop = "Only the creator can delete this post"
)

type PostService struct {
	posts repository.PostRepository
}

type CreatePostInput struct {
	Author    models.UserRef
	Title     string
	Content   string
	Tags      *TagList
	ImagePath string
}

type ListPostsInput struct {
	CallerID uint
	Search   string
	Page     int
	Mine     bool
}

type UpdatePostInput struct {
	CallerID  uint
	PostID    uint
	Title     *string
	Content   *string
	Tags      *TagList
	ImagePath *string
}

type AddCommentInput struct {
	CallerID uint
	PostID   uint
	Text     string
}

func NewPostService(posts repository.PostRepository) *PostService {
	return &PostService{posts: posts}
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.Create")
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError(msgTitleRequired)
	}

	created := &models.Post{
		Title:    in.Title,
		Content:  in.Content,
		UserID:   in.Author.ID,
		Username: in.Author.Username,
		Image:    in.ImagePath,
		Tags:     in.Tags.Values(),
	}
	if err := s.posts.Create(ctx, created); err != nil {
		return nil, err
	}
	observability.PostMutations.WithLabelValues("create").Inc()

	return s.posts.GetByID(ctx, created.ID)
}

// NormalizePage clamps page to at least 1.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func (s *PostService) List(ctx context.Context, in ListPostsInput) (page *models.PostPage, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.List",
		attribute.Int("page", in.Page), attribute.Bool("mine", in.Mine))
	defer func() { observability.EndSpan(span, err) }()

	filter := repository.PostFilter{
		Search: strings.TrimSpace(in.Search),
		Limit:  PageSize,
	}
	// mine is ignored for anonymous callers.
	if in.Mine && in.CallerID != 0 {
		filter.AuthorID = in.CallerID
	}
	pageNum := NormalizePage(in.Page)
	filter.Offset = (pageNum - 1) * PageSize

	result := &models.PostPage{}
	load := func() error {
		posts, total, err := s.posts.List(ctx, filter)
		if err != nil {
			return err
		}
		result.Posts = posts
		result.Total = total
		result.Page = pageNum
		result.TotalPages = int((total + PageSize - 1) / PageSize)
		return nil
	}

	if filter.Search == "" && filter.AuthorID == 0 {
		err = cache.Aside(ctx, cache.PostsListKey(ctx, pageNum), result, cache.ListTTL, load)
	} else {
		err = load()
	}
	if err != nil {
		return nil, err
	}
	if result.Posts == nil {
		result.Posts = []models.Post{}
	}
	return result, nil
}

// getOwned loads a post and checks that callerID wrote it.
func (s *PostService) getOwned(ctx context.Context, postID, callerID uint, forbidden string) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != callerID {
		return nil, models.NewForbiddenError(forbidden)
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, in UpdatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.Update", attribute.Int64("post_id", int64(in.PostID)))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.getOwned(ctx, in.PostID, in.CallerID, msgOnlyCreatorEdit); err != nil {
		return nil, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, models.NewValidationError(msgTitleRequired)
	}

	changes := repository.PostChanges{
		Title:   in.Title,
		Content: in.Content,
		Image:   in.ImagePath,
	}
	if in.Tags != nil {
		tags := in.Tags.Values()
		changes.Tags = &tags
	}
	if err := s.posts.Update(ctx, in.PostID, changes); err != nil {
		return nil, err
	}
	observability.PostMutations.WithLabelValues("update").Inc()

	return s.posts.GetByID(ctx, in.PostID)
}

func (s *PostService) Delete(ctx context.Context, callerID, postID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.Delete", attribute.Int64("post_id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.getOwned(ctx, postID, callerID, msgOnlyCreatorDrop); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	observability.PostMutations.WithLabelValues("delete").Inc()
	return nil
}

// ToggleLike adds the caller's like, or removes it if already present.
func (s *PostService) ToggleLike(ctx context.Context, callerID, postID uint) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.ToggleLike", attribute.Int64("post_id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	liked, err := s.posts.ToggleLike(ctx, postID, callerID)
	if err != nil {
		return nil, err
	}
	if liked {
		observability.PostMutations.WithLabelValues("like").Inc()
	} else {
		observability.PostMutations.WithLabelValues("unlike").Inc()
	}

	return s.posts.GetByID(ctx, postID)
}

func (s *PostService) AddComment(ctx context.Context, in AddCommentInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.AddComment", attribute.Int64("post_id", int64(in.PostID)))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.posts.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}
	comment := &models.Comment{PostID: in.PostID, UserID: in.CallerID, Text: in.Text}
	if err := s.posts.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	observability.PostMutations.WithLabelValues("comment").Inc()

	return s.posts.GetByID(ctx, in.PostID)
}
