package models

import "time"

// Post represents a blog post.
type Post struct {
	ID       uint    `gorm:"primaryKey" json:"_id"`
	Title    string  `gorm:"not null" json:"title"`
	Content  string  `gorm:"type:text;not null" json:"content"`
	UserID   uint    `gorm:"not null;index" json:"-"`
	Author   UserRef `gorm:"foreignKey:UserID" json:"author"`
	Username string  `gorm:"not null;index" json:"username"`
	Image    string  `json:"image,omitempty"`

	TagRows  []PostTag `gorm:"foreignKey:PostID" json:"-"`
	LikeRows []Like    `gorm:"foreignKey:PostID" json:"-"`
	Comments []Comment `gorm:"foreignKey:PostID" json:"comments"`

	// Tags and Likes are hydrated from TagRows and LikeRows after loading.
	Tags  []string  `gorm:"-" json:"tags"`
	Likes []UserRef `gorm:"-" json:"likes"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostTag is one entry of a post's ordered tag list.
type PostTag struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PostID   uint   `gorm:"not null;index" json:"-"`
	Position int    `gorm:"not null" json:"-"`
	Name     string `gorm:"not null;index" json:"name"`
}

// Like represents a user's like on a post.
// The combination of PostID and UserID must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_post_user" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_post_user" json:"-"`
	User      UserRef   `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is an append-only remark on a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	PostID    uint      `gorm:"not null;index" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	Author    UserRef   `gorm:"foreignKey:UserID" json:"author"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Hydrate fills the client-facing Tags and Likes from their loaded rows.
// Both slices are always non-nil so they serialize as [].
func (p *Post) Hydrate() {
	p.Tags = make([]string, 0, len(p.TagRows))
	for _, t := range p.TagRows {
		p.Tags = append(p.Tags, t.Name)
	}
	p.Likes = make([]UserRef, 0, len(p.LikeRows))
	for _, l := range p.LikeRows {
		ref := l.User
		if ref.ID == 0 {
			ref.ID = l.UserID
		}
		p.Likes = append(p.Likes, ref)
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}

// LikedBy reports whether userID is in the post's like set.
func (p *Post) LikedBy(userID uint) bool {
	for _, l := range p.LikeRows {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// TagRowsFrom builds ordered tag rows for the given names.
func TagRowsFrom(postID uint, names []string) []PostTag {
	rows := make([]PostTag, 0, len(names))
	for i, n := range names {
		rows = append(rows, PostTag{PostID: postID, Position: i, Name: n})
	}
	return rows
}

// PostPage is one page of the post listing.
type PostPage struct {
	Posts      []Post `json:"posts"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
}
