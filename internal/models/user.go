// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents a registered account.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Ref returns the public projection of the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}

// UserRef is the public projection of a user. It is the only user shape sent to clients
// and is also the belongs-to target for posts, likes, and comments.
type UserRef struct {
	ID       uint   `gorm:"primaryKey" json:"_id"`
	Username string `json:"username"`
}

// TableName maps UserRef onto the users table.
func (UserRef) TableName() string {
	return "users"
}
