package models

import "time"

type User struct {
	ID              string  `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Email           *string `json:"email" gorm:"uniqueIndex"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	ProfileImageURL *string `json:"profileImageUrl"`

	Balance      Numeric    `json:"balance" gorm:"type:numeric(10,2);not null"`
	DailyStreak  int        `json:"dailyStreak" gorm:"not null"`
	LastWalkDate *time.Time `json:"lastWalkDate"`

	TotalSteps    int64   `json:"totalSteps" gorm:"not null"`
	TotalDistance Numeric `json:"totalDistance" gorm:"type:numeric(10,2);not null"`
	TotalEarnings Numeric `json:"totalEarnings" gorm:"type:numeric(10,2);not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity is the profile asserted by the upstream identity provider.
type Identity struct {
	Subject         string `json:"sub"`
	Email           string `json:"email,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

type UserSession struct {
	UserID       string    `json:"user_id"`
	SessionID    string    `json:"session_id"`
	Identity     Identity  `json:"identity"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

type LoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// NewUserFromIdentity builds a fresh user record with zero balances.
func NewUserFromIdentity(id Identity) *User {
	u := &User{ID: id.Subject}
	u.ApplyIdentity(id)
	return u
}

func (u *User) ApplyIdentity(id Identity) {
	u.Email = optional(id.Email)
	u.FirstName = optional(id.FirstName)
	u.LastName = optional(id.LastName)
	u.ProfileImageURL = optional(id.ProfileImageURL)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
