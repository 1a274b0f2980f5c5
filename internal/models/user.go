package models

import "time"

// User is a registered account. Email is stored lower-cased and trimmed.
type User struct {
	ID           string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `json:"name" bson:"name" gorm:"type:varchar(100);not null"`
	Email        string    `json:"email" bson:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash string    `json:"-" bson:"password" gorm:"column:password;type:varchar(255);not null"`
	Avatar       string    `json:"avatar" bson:"avatar"`
	JoinedAt     time.Time `json:"joinedAt" bson:"joinedAt"`
	CreatedAt    time.Time `json:"-" bson:"createdAt"`
	UpdatedAt    time.Time `json:"-" bson:"updatedAt"`
}

// UserSummary is the public identity attached to recipes and reviews.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserProfile is the account view returned by the auth endpoints.
type UserProfile struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Avatar   string    `json:"avatar"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Summary returns the public identity of u.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Profile returns the account view of u.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Avatar:   u.Avatar,
		JoinedAt: u.JoinedAt,
	}
}

// Principal is the authenticated identity carried by a request.
type Principal struct {
	UserID string
	Email  string
}
