package models

import "time"

// Event is a concert, rehearsal or meeting.
type Event struct {
	Base
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description,omitempty"`
	Location    *string    `db:"location" json:"location,omitempty"`
	StartsAt    time.Time  `db:"starts_at" json:"starts_at"`
	EndsAt      *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	PosterImage []byte     `db:"poster_image" json:"-"`
	Tags        *string    `db:"tags" json:"tags,omitempty"` // JSON array
}

func (e *Event) EntityType() string { return "Event" }
func (e *Event) TableName() string  { return "events" }

type Song struct {
	Base
	Title         string  `db:"title" json:"title"`
	Composer      *string `db:"composer" json:"composer,omitempty"`
	Arranger      *string `db:"arranger" json:"arranger,omitempty"`
	SheetMusicPDF []byte  `db:"sheet_music_pdf" json:"-"`
}

func (s *Song) EntityType() string { return "Song" }
func (s *Song) TableName() string  { return "songs" }

// RepertoireItem places a song on an event's programme.
type RepertoireItem struct {
	Base
	EventID  int64   `db:"event_id" json:"event_id"`
	SongID   int64   `db:"song_id" json:"song_id"`
	Position int     `db:"position" json:"position"`
	Notes    *string `db:"notes" json:"notes,omitempty"`
}

func (r *RepertoireItem) EntityType() string { return "RepertoireItem" }
func (r *RepertoireItem) TableName() string  { return "repertoire_items" }

const (
	AttendancePresent = "present"
	AttendanceExcused = "excused"
	AttendanceAbsent  = "absent"
)

func IsValidAttendanceStatus(s string) bool {
	return s == AttendancePresent || s == AttendanceExcused || s == AttendanceAbsent
}

type Attendance struct {
	Base
	EventID int64     `db:"event_id" json:"event_id"`
	UserID  string    `db:"user_id" json:"user_id"`
	Date    time.Time `db:"date" json:"date"`
	Status  string    `db:"status" json:"status"`
}

func (a *Attendance) EntityType() string { return "Attendance" }
func (a *Attendance) TableName() string  { return "attendances" }
