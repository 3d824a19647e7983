package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/models"
	"github.com/campus-assoc/backend/internal/repositories"
	"github.com/campus-assoc/backend/internal/richtext"
)

type EventService struct {
	units     *Units
	eventRepo *repositories.EventRepo
	userRepo  *repositories.UserRepo
	log       *zap.Logger
}

func NewEventService(units *Units, eventRepo *repositories.EventRepo, userRepo *repositories.UserRepo, log *zap.Logger) *EventService {
	return &EventService{units: units, eventRepo: eventRepo, userRepo: userRepo, log: log}
}

type EventInput struct {
	Name        *string
	Description *string
	Location    *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Tags        []string
}

func (s *EventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	return s.eventRepo.GetByID(ctx, nil, id)
}

func (s *EventService) ListUpcoming(ctx context.Context, from time.Time, limit, offset int) ([]*models.Event, error) {
	return s.eventRepo.ListUpcoming(ctx, from, limit, offset)
}

func (s *EventService) CreateEvent(ctx context.Context, in EventInput) (*models.Event, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("%w: event name is required", ErrInvalidInput)
	}
	if in.StartsAt == nil {
		return nil, fmt.Errorf("%w: starts_at is required", ErrInvalidInput)
	}

	u := s.units.Begin()
	defer u.Close()

	ev := &models.Event{}
	if err := applyEventInput(ev, in); err != nil {
		return nil, err
	}
	if err := u.Add(ev); err != nil {
		return nil, err
	}
	if err := u.Save(ctx); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, id int64, in EventInput) (*models.Event, error) {
	u := s.units.Begin()
	defer u.Close()

	ev, err := s.eventRepo.GetByID(ctx, u, id)
	if err != nil {
		return nil, err
	}
	if err := applyEventInput(ev, in); err != nil {
		return nil, err
	}
	if err := u.Save(ctx); err != nil {
		return nil, err
	}
	return ev, nil
}

func applyEventInput(ev *models.Event, in EventInput) error {
	if in.Name != nil {
		ev.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		ev.Description = trimmedOrNil(richtext.PlainText(*in.Description))
	}
	if in.Location != nil {
		ev.Location = trimmedOrNil(*in.Location)
	}
	if in.StartsAt != nil {
		ev.StartsAt = in.StartsAt.UTC()
	}
	if in.EndsAt != nil {
		end := in.EndsAt.UTC()
		ev.EndsAt = &end
	}
	if ev.EndsAt != nil && ev.EndsAt.Before(ev.StartsAt) {
		return fmt.Errorf("%w: event ends before it starts", ErrInvalidInput)
	}
	if in.Tags != nil {
		data, err := json.Marshal(in.Tags)
		if err != nil {
			return err
		}
		tags := string(data)
		ev.Tags = &tags
	}
	return nil
}

func (s *EventService) SetPoster(ctx context.Context, id int64, image []byte) error {
	u := s.units.Begin()
	defer u.Close()

	ev, err := s.eventRepo.GetByID(ctx, u, id)
	if err != nil {
		return err
	}
	ev.PosterImage = nilIfEmpty(image)
	return u.Save(ctx)
}

// DeleteEvent removes an event with its programme and attendance. Dependent
// rows are tracked before the event so they are deleted, and audited, first.
func (s *EventService) DeleteEvent(ctx context.Context, id int64) error {
	u := s.units.Begin()
	defer u.Close()

	items, err := s.eventRepo.Repertoire(ctx, u, id)
	if err != nil {
		return err
	}
	attendances, err := s.eventRepo.Attendances(ctx, u, id)
	if err != nil {
		return err
	}
	ev, err := s.eventRepo.GetByID(ctx, u, id)
	if err != nil {
		return err
	}
	for _, item := range items {
		if _, err := s.eventRepo.GetSong(ctx, u, item.SongID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	for _, a := range attendances {
		if _, err := s.userRepo.GetByID(ctx, u, a.UserID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	if err := removeAll(u, items...); err != nil {
		return err
	}
	if err := removeAll(u, attendances...); err != nil {
		return err
	}
	if err := u.Remove(ev); err != nil {
		return err
	}
	return u.Save(ctx)
}

type SongInput struct {
	Title    *string
	Composer *string
	Arranger *string
}

func (s *EventService) ListSongs(ctx context.Context, limit, offset int) ([]*models.Song, error) {
	return s.eventRepo.ListSongs(ctx, limit, offset)
}

func (s *EventService) CreateSong(ctx context.Context, in SongInput) (*models.Song, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("%w: song title is required", ErrInvalidInput)
	}

	u := s.units.Begin()
	defer u.Close()

	song := &models.Song{}
	applySongInput(song, in)
	if err := u.Add(song); err != nil {
		return nil, err
	}
	if err := u.Save(ctx); err != nil {
		return nil, err
	}
	return song, nil
}

func (s *EventService) UpdateSong(ctx context.Context, id int64, in SongInput) (*models.Song, error) {
	u := s.units.Begin()
	defer u.Close()

	song, err := s.eventRepo.GetSong(ctx, u, id)
	if err != nil {
		return nil, err
	}
	applySongInput(song, in)
	if song.Title == "" {
		return nil, fmt.Errorf("%w: song title is required", ErrInvalidInput)
	}
	if err := u.Save(ctx); err != nil {
		return nil, err
	}
	return song, nil
}

func applySongInput(song *models.Song, in SongInput) {
	if in.Title != nil {
		song.Title = strings.TrimSpace(*in.Title)
	}
	if in.Composer != nil {
		song.Composer = trimmedOrNil(*in.Composer)
	}
	if in.Arranger != nil {
		song.Arranger = trimmedOrNil(*in.Arranger)
	}
}

func (s *EventService) SetSheetMusic(ctx context.Context, id int64, pdf []byte) error {
	u := s.units.Begin()
	defer u.Close()

	song, err := s.eventRepo.GetSong(ctx, u, id)
	if err != nil {
		return err
	}
	song.SheetMusicPDF = nilIfEmpty(pdf)
	return u.Save(ctx)
}

// DeleteSong removes a song and takes it off every programme that uses it.
func (s *EventService) DeleteSong(ctx context.Context, id int64) error {
	u := s.units.Begin()
	defer u.Close()

	items, err := s.eventRepo.RepertoireOfSong(ctx, u, id)
	if err != nil {
		return err
	}
	song, err := s.eventRepo.GetSong(ctx, u, id)
	if err != nil {
		return err
	}
	for _, item := range items {
		if _, err := s.eventRepo.GetByID(ctx, u, item.EventID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	if err := removeAll(u, items...); err != nil {
		return err
	}
	if err := u.Remove(song); err != nil {
		return err
	}
	return u.Save(ctx)
}

func (s *EventService) Repertoire(ctx context.Context, eventID int64) ([]*models.RepertoireItem, error) {
	return s.eventRepo.Repertoire(ctx, nil, eventID)
}

// AddToRepertoire appends a song to an event's programme. Both rows are loaded
// so the item is labelled "event - song" in the audit log.
func (s *EventService) AddToRepertoire(ctx context.Context, eventID, songID int64, position *int, notes *string) (*models.RepertoireItem, error) {
	u := s.units.Begin()
	defer u.Close()

	if _, err := s.eventRepo.GetByID(ctx, u, eventID); err != nil {
		return nil, err
	}
	if _, err := s.eventRepo.GetSong(ctx, u, songID); err != nil {
		return nil, err
	}

	if notes != nil {
		notes = trimmedOrNil(richtext.PlainText(*notes))
	}
	item := &models.RepertoireItem{EventID: eventID, SongID: songID, Notes: notes}
	if position != nil {
		item.Position = *position
	} else {
		existing, err := s.eventRepo.Repertoire(ctx, nil, eventID)
		if err != nil {
			return nil, err
		}
		item.Position = len(existing) + 1
	}

	if err := u.Add(item); err != nil {
		return nil, err
	}
	if err := u.Save(ctx); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *EventService) MoveRepertoireItem(ctx context.Context, itemID int64, position int) error {
	u := s.units.Begin()
	defer u.Close()

	item, err := s.loadRepertoireItem(ctx, u, itemID)
	if err != nil {
		return err
	}
	item.Position = position
	return u.Save(ctx)
}

func (s *EventService) RemoveFromRepertoire(ctx context.Context, itemID int64) error {
	u := s.units.Begin()
	defer u.Close()

	item, err := s.loadRepertoireItem(ctx, u, itemID)
	if err != nil {
		return err
	}
	if err := u.Remove(item); err != nil {
		return err
	}
	return u.Save(ctx)
}

// loadRepertoireItem loads an item together with its event and song. A missing
// parent only degrades the audit label.
func (s *EventService) loadRepertoireItem(ctx context.Context, u *Unit, itemID int64) (*models.RepertoireItem, error) {
	item, err := s.eventRepo.GetRepertoireItem(ctx, u, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := s.eventRepo.GetByID(ctx, u, item.EventID); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if _, err := s.eventRepo.GetSong(ctx, u, item.SongID); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return item, nil
}

func (s *EventService) Attendances(ctx context.Context, eventID int64) ([]*models.Attendance, error) {
	return s.eventRepo.Attendances(ctx, nil, eventID)
}

// RecordAttendance sets a member's status for one day of an event, creating the
// row on first use.
func (s *EventService) RecordAttendance(ctx context.Context, eventID int64, userID string, date time.Time, status string) (*models.Attendance, error) {
	if !models.IsValidAttendanceStatus(status) {
		return nil, fmt.Errorf("%w: unknown attendance status %q", ErrInvalidInput, status)
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	u := s.units.Begin()
	defer u.Close()

	if _, err := s.eventRepo.GetByID(ctx, nil, eventID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, u, userID); err != nil {
		return nil, err
	}

	a, err := s.eventRepo.GetAttendance(ctx, u, eventID, userID, day)
	switch {
	case errors.Is(err, ErrNotFound):
		a = &models.Attendance{EventID: eventID, UserID: userID, Date: day, Status: status}
		if err := u.Add(a); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		a.Status = status
	}

	if err := u.Save(ctx); err != nil {
		return nil, err
	}
	return a, nil
}
