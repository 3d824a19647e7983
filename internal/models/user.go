package models

import (
	"strings"
	"time"
)

// User is a member account. Its id is the identity provider's opaque string key.
type User struct {
	ID             string    `db:"id" json:"id"`
	UserName       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PhoneNumber    *string   `db:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   *string   `db:"password_hash" json:"-"`
	SecurityStamp  *string   `db:"security_stamp" json:"-"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	ProfilePicture []byte    `db:"profile_picture" json:"-"`
	Instruments    *string   `db:"instruments" json:"instruments,omitempty"` // JSON array
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

func (u *User) EntityType() string { return "User" }
func (u *User) TableName() string  { return "users" }
func (u *User) PrimaryKey() any    { return u.ID }

// Label is the short name shown for the account in logs and lists.
func (u *User) Label() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	switch {
	case full != "":
		return full
	case u.UserName != "":
		return u.UserName
	default:
		return u.Email
	}
}
