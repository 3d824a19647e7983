package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/http/dto"
	"github.com/campus-assoc/backend/internal/services"
)

type EventHandler struct {
	events *services.EventService
	log    *zap.Logger
}

func NewEventHandler(events *services.EventService, log *zap.Logger) *EventHandler {
	return &EventHandler{events: events, log: log}
}

func eventInput(req dto.EventRequest) services.EventInput {
	return services.EventInput{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Tags:        req.Tags,
	}
}

func (h *EventHandler) ListUpcoming(c *fiber.Ctx) error {
	from := time.Now().UTC().Add(-24 * time.Hour)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "from must be RFC 3339")
		}
		from = t
	}
	limit, offset := paging(c)
	list, err := h.events.ListUpcoming(c.UserContext(), from, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: list})
}

func (h *EventHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	ev, err := h.events.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ev})
}

func (h *EventHandler) Create(c *fiber.Ctx) error {
	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ev, err := h.events.CreateEvent(c.UserContext(), eventInput(req))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: ev})
}

func (h *EventHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ev, err := h.events.UpdateEvent(c.UserContext(), id, eventInput(req))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ev})
}

func (h *EventHandler) UploadPoster(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	data, err := readUpload(c, "poster")
	if err != nil {
		return err
	}
	if err := h.events.SetPoster(c.UserContext(), id, data); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *EventHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	if err := h.events.DeleteEvent(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *EventHandler) Repertoire(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	items, err := h.events.Repertoire(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: items})
}

func (h *EventHandler) AddToRepertoire(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var req dto.RepertoireRequest
	if err := c.BodyParser(&req); err != nil || req.SongID <= 0 {
		return badRequest(c, "song_id is required")
	}
	item, err := h.events.AddToRepertoire(c.UserContext(), id, req.SongID, req.Position, req.Notes)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: item})
}

func (h *EventHandler) MoveRepertoireItem(c *fiber.Ctx) error {
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return badRequest(c, "invalid item id")
	}
	var req dto.MoveRepertoireRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.events.MoveRepertoireItem(c.UserContext(), itemID, req.Position); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *EventHandler) RemoveFromRepertoire(c *fiber.Ctx) error {
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return badRequest(c, "invalid item id")
	}
	if err := h.events.RemoveFromRepertoire(c.UserContext(), itemID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *EventHandler) Attendances(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	list, err := h.events.Attendances(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: list})
}

func (h *EventHandler) RecordAttendance(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var req dto.AttendanceRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return badRequest(c, "user_id, date and status are required")
	}
	a, err := h.events.RecordAttendance(c.UserContext(), id, req.UserID, req.Date, req.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: a})
}

func (h *EventHandler) ListSongs(c *fiber.Ctx) error {
	limit, offset := paging(c)
	songs, err := h.events.ListSongs(c.UserContext(), limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: songs})
}

func (h *EventHandler) CreateSong(c *fiber.Ctx) error {
	var req dto.SongRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	song, err := h.events.CreateSong(c.UserContext(), services.SongInput{Title: req.Title, Composer: req.Composer, Arranger: req.Arranger})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: song})
}

func (h *EventHandler) UpdateSong(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid song id")
	}
	var req dto.SongRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	song, err := h.events.UpdateSong(c.UserContext(), id, services.SongInput{Title: req.Title, Composer: req.Composer, Arranger: req.Arranger})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: song})
}

func (h *EventHandler) UploadSheetMusic(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid song id")
	}
	data, err := readUpload(c, "sheet_music")
	if err != nil {
		return err
	}
	if err := h.events.SetSheetMusic(c.UserContext(), id, data); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *EventHandler) DeleteSong(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid song id")
	}
	if err := h.events.DeleteSong(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
