package models

import "fmt"

const (
	RoleAdmin     = "Admin"
	RoleBoard     = "Board"
	RoleTreasurer = "Treasurer"
	RoleMember    = "Member"
)

type Role struct {
	Base
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
}

func (r *Role) EntityType() string { return "Role" }
func (r *Role) TableName() string  { return "roles" }

// UserRole grants a role to a user. It has no identity besides its two keys.
type UserRole struct {
	UserID string `db:"user_id" json:"user_id"`
	RoleID int64  `db:"role_id" json:"role_id"`
}

func (ur *UserRole) EntityType() string    { return "UserRole" }
func (ur *UserRole) TableName() string     { return "user_roles" }
func (ur *UserRole) PrimaryKey() any       { return fmt.Sprintf("%s:%d", ur.UserID, ur.RoleID) }
func (ur *UserRole) Endpoints() (any, any) { return ur.UserID, ur.RoleID }
