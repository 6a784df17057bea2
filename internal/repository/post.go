package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"miniblog/internal/cache"
	"miniblog/internal/models"
	"miniblog/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a post listing.
type PostFilter struct {
	Search   string
	AuthorID uint
	Limit    int
	Offset   int
}

// PostChanges holds the fields to apply in an update. Nil fields are left untouched.
type PostChanges struct {
	Title   *string
	Content *string
	Image   *string
	Tags    *[]string
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]models.Post, int64, error)
	Update(ctx context.Context, id uint, changes PostChanges) error
	Delete(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, postID, userID uint) (bool, error)
	AddComment(ctx context.Context, comment *models.Comment) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("TagRows", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("LikeRows", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("LikeRows.User").
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Comments.Author")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()

	tags := post.Tags
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		post.TagRows = models.TagRowsFrom(post.ID, tags)
		if len(post.TagRows) > 0 {
			if err := tx.Create(&post.TagRows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePostsList(ctx)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackQuery("get_by_id", "posts")()

	var post models.Post
	if err := withDetails(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post")
		}
		return nil, models.NewInternalError(err)
	}
	post.Hydrate()
	return &post, nil
}

// escapeLike escapes LIKE wildcards so the search term matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func applyFilter(db *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.AuthorID != 0 {
		db = db.Where("posts.user_id = ?", filter.AuthorID)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		db = db.Where(
			db.Session(&gorm.Session{NewDB: true}).
				Where(`LOWER(posts.title) LIKE ? ESCAPE '\'`, pattern).
				Or(`LOWER(posts.username) LIKE ? ESCAPE '\'`, pattern).
				Or(`EXISTS (SELECT 1 FROM post_tags WHERE post_tags.post_id = posts.id AND LOWER(post_tags.name) LIKE ? ESCAPE '\')`, pattern),
		)
	}
	return db
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]models.Post, int64, error) {
	defer observability.TrackQuery("list", "posts")()

	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&models.Post{}), filter).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	posts := make([]models.Post, 0)
	if total == 0 {
		return posts, 0, nil
	}

	query := applyFilter(withDetails(r.db.WithContext(ctx)), filter).
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	for i := range posts {
		posts[i].Hydrate()
	}
	return posts, total, nil
}

func (r *postRepository) Update(ctx context.Context, id uint, changes PostChanges) error {
	defer observability.TrackQuery("update", "posts")()

	updates := map[string]interface{}{"updated_at": time.Now()}
	if changes.Title != nil {
		updates["title"] = *changes.Title
	}
	if changes.Content != nil {
		updates["content"] = *changes.Content
	}
	if changes.Image != nil {
		updates["image"] = *changes.Image
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post")
		}
		if changes.Tags == nil {
			return nil
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		rows := models.TagRowsFrom(id, *changes.Tags)
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePostsList(ctx)
	return nil
}

// Delete removes the post together with its tags, likes and comments.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{&models.PostTag{}, &models.Like{}, &models.Comment{}} {
			if err := tx.Where("post_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post")
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePostsList(ctx)
	return nil
}

// ToggleLike removes the caller's like if present, otherwise adds it. It reports
// whether the post is liked afterwards. Concurrent toggles from other users never
// touch this user's row.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID uint) (bool, error) {
	defer observability.TrackQuery("toggle_like", "likes")()

	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}
		like := models.Like{PostID: postID, UserID: userID}
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	cache.InvalidatePostsList(ctx)
	return liked, nil
}

func (r *postRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePostsList(ctx)
	return nil
}
