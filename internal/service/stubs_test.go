package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"miniblog/internal/models"
	"miniblog/internal/repository"
)

// userRepoStub is an in-memory repository.UserRepository.
type userRepoStub struct {
	mu     sync.Mutex
	users  map[uint]*models.User
	nextID uint

	createFn func(context.Context, *models.User) error
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: map[uint]*models.User{}, nextID: 1}
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User")
	}
	cp := *u
	return &cp, nil
}

func (s *userRepoStub) find(match func(*models.User) bool) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Email == email }), nil
}

func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Username == username }), nil
}

func (s *userRepoStub) FindByEmailOrUsername(_ context.Context, email, username string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Email == email || u.Username == username }), nil
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.nextID
	s.nextID++
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *userRepoStub) delete(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// postRepoStub is an in-memory repository.PostRepository.
type postRepoStub struct {
	mu       sync.Mutex
	posts    map[uint]*models.Post
	names    map[uint]string
	nextID   uint
	lastList repository.PostFilter

	listCalls int
	updateFn  func(context.Context, uint, repository.PostChanges) error
}

func newPostRepoStub(names map[uint]string) *postRepoStub {
	return &postRepoStub{posts: map[uint]*models.Post{}, names: names, nextID: 1}
}

func (s *postRepoStub) Create(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post.ID = s.nextID
	s.nextID++
	post.CreatedAt = time.Now()
	post.TagRows = models.TagRowsFrom(post.ID, post.Tags)
	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (s *postRepoStub) GetByID(_ context.Context, id uint) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post")
	}
	return s.hydrated(p), nil
}

func (s *postRepoStub) hydrated(p *models.Post) *models.Post {
	cp := *p
	cp.Author = models.UserRef{ID: p.UserID, Username: s.names[p.UserID]}
	cp.LikeRows = append([]models.Like(nil), p.LikeRows...)
	for i := range cp.LikeRows {
		cp.LikeRows[i].User = models.UserRef{ID: cp.LikeRows[i].UserID, Username: s.names[cp.LikeRows[i].UserID]}
	}
	cp.Comments = append([]models.Comment(nil), p.Comments...)
	cp.Hydrate()
	return &cp
}

func (s *postRepoStub) List(_ context.Context, filter repository.PostFilter) ([]models.Post, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastList = filter
	s.listCalls++

	ids := make([]uint, 0, len(s.posts))
	for id, p := range s.posts {
		if filter.AuthorID != 0 && p.UserID != filter.AuthorID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	total := int64(len(ids))
	out := []models.Post{}
	for i := filter.Offset; i < len(ids) && len(out) < filter.Limit; i++ {
		out = append(out, *s.hydrated(s.posts[ids[i]]))
	}
	return out, total, nil
}

func (s *postRepoStub) Update(ctx context.Context, id uint, changes repository.PostChanges) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, changes)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return models.NewNotFoundError("Post")
	}
	if changes.Title != nil {
		p.Title = *changes.Title
	}
	if changes.Content != nil {
		p.Content = *changes.Content
	}
	if changes.Image != nil {
		p.Image = *changes.Image
	}
	if changes.Tags != nil {
		p.TagRows = models.TagRowsFrom(id, *changes.Tags)
	}
	return nil
}

func (s *postRepoStub) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return models.NewNotFoundError("Post")
	}
	delete(s.posts, id)
	return nil
}

func (s *postRepoStub) ToggleLike(_ context.Context, postID, userID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.posts[postID]
	for i, l := range p.LikeRows {
		if l.UserID == userID {
			p.LikeRows = append(p.LikeRows[:i], p.LikeRows[i+1:]...)
			return false, nil
		}
	}
	p.LikeRows = append(p.LikeRows, models.Like{PostID: postID, UserID: userID})
	return true, nil
}

func (s *postRepoStub) AddComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.posts[c.PostID]
	c.ID = uint(len(p.Comments) + 1)
	c.Author = models.UserRef{ID: c.UserID, Username: s.names[c.UserID]}
	p.Comments = append(p.Comments, *c)
	return nil
}
