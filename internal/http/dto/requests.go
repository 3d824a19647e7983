package dto

import "time"

type RegisterRequest struct {
	UserName  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Login    string `json:"login"` // username or email
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	FirstName   *string  `json:"first_name,omitempty"`
	LastName    *string  `json:"last_name,omitempty"`
	PhoneNumber *string  `json:"phone_number,omitempty"`
	Instruments []string `json:"instruments,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type CreateRoleRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type GrantRoleRequest struct {
	RoleID int64 `json:"role_id"`
}

type EventRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

type SongRequest struct {
	Title    *string `json:"title,omitempty"`
	Composer *string `json:"composer,omitempty"`
	Arranger *string `json:"arranger,omitempty"`
}

type RepertoireRequest struct {
	SongID   int64   `json:"song_id"`
	Position *int    `json:"position,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

type MoveRepertoireRequest struct {
	Position int `json:"position"`
}

type AttendanceRequest struct {
	UserID string    `json:"user_id"`
	Date   time.Time `json:"date"`
	Status string    `json:"status"` // present / excused / absent
}

type FiscalYearRequest struct {
	Name     string    `json:"name"`
	StartsOn time.Time `json:"starts_on"`
	EndsOn   time.Time `json:"ends_on"`
}
