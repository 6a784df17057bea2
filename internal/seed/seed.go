// Package seed fills a database with demo data for development and testing.
// Everything is written through the repositories so the list cache stays coherent.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"miniblog/internal/models"
	"miniblog/internal/observability"
	"miniblog/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is given to every generated user.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	MaxLikes    int
	MaxComments int
	// MaxDays spreads post creation times over the last N days.
	MaxDays  int
	Password string
	HashCost int
	// RandSeed makes the generated data reproducible. Zero picks a time-based seed.
	RandSeed int64
}

// DefaultOptions returns the options used by the seed command.
func DefaultOptions() Options {
	return Options{
		NumUsers:    10,
		NumPosts:    40,
		MaxLikes:    6,
		MaxComments: 4,
		MaxDays:     60,
		Password:    DefaultPassword,
		HashCost:    bcrypt.DefaultCost,
	}
}

// Summary reports how many rows a run created.
type Summary struct {
	Users    int
	Posts    int
	Likes    int
	Comments int
}

// Seeder creates users, posts, likes and comments.
type Seeder struct {
	db      *gorm.DB
	users   repository.UserRepository
	posts   repository.PostRepository
	factory *Factory
	opts    Options
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Seeder{
		db:      db,
		users:   repository.NewUserRepository(db),
		posts:   repository.NewPostRepository(db),
		factory: NewFactory(gofakeit.New(seed), opts.MaxDays),
		opts:    opts,
	}
}

// ClearAll removes every row the application owns, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	for _, table := range []string{"comments", "likes", "post_tags", "posts", "users"} {
		if err := s.db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	observability.Logger.InfoContext(ctx, "Cleared database")
	return nil
}

func (s *Seeder) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.HashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// createUser hashes the plain password held in user.Password and stores the user.
func (s *Seeder) createUser(ctx context.Context, user *models.User) error {
	hashed, err := s.hash(user.Password)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", user.Username, err)
	}
	user.Password = hashed
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return nil
}

// SeedUsers creates n fake users sharing the configured password.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user := s.factory.User(i, s.opts.Password)
		if err := s.createUser(ctx, user); err != nil {
			return users, err
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedPosts creates n posts with authors drawn from users.
func (s *Seeder) SeedPosts(ctx context.Context, users []*models.User, n int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}

	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		post := s.factory.Post(users[s.factory.Intn(len(users))])
		if err := s.posts.Create(ctx, post); err != nil {
			return posts, fmt.Errorf("create post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// SeedEngagement adds random likes and comments to posts.
func (s *Seeder) SeedEngagement(ctx context.Context, users []*models.User, posts []*models.Post) (likes, comments int, err error) {
	for _, post := range posts {
		for _, user := range s.factory.Pick(users, s.opts.MaxLikes) {
			liked, err := s.posts.ToggleLike(ctx, post.ID, user.ID)
			if err != nil {
				return likes, comments, fmt.Errorf("like post %d: %w", post.ID, err)
			}
			if liked {
				likes++
			}
		}

		if len(users) == 0 || s.opts.MaxComments <= 0 {
			continue
		}
		for j := s.factory.Intn(s.opts.MaxComments + 1); j > 0; j-- {
			author := users[s.factory.Intn(len(users))]
			if err := s.posts.AddComment(ctx, s.factory.Comment(post.ID, author)); err != nil {
				return likes, comments, fmt.Errorf("comment on post %d: %w", post.ID, err)
			}
			comments++
		}
	}
	return likes, comments, nil
}

// Run seeds users, posts and engagement according to the seeder options.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	users, err := s.SeedUsers(ctx, s.opts.NumUsers)
	if err != nil {
		return nil, err
	}
	posts, err := s.SeedPosts(ctx, users, s.opts.NumPosts)
	if err != nil {
		return nil, err
	}
	likes, comments, err := s.SeedEngagement(ctx, users, posts)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Users: len(users), Posts: len(posts), Likes: likes, Comments: comments}
	observability.Logger.InfoContext(ctx, "Seeded database",
		slog.Int("users", summary.Users),
		slog.Int("posts", summary.Posts),
		slog.Int("likes", summary.Likes),
		slog.Int("comments", summary.Comments),
	)
	return summary, nil
}
