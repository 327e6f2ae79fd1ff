package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/acmevents/palco-checkin/internal/model"
	"github.com/acmevents/palco-checkin/internal/occupancy"
	"github.com/acmevents/palco-checkin/internal/queue"
	"github.com/acmevents/palco-checkin/internal/repository"
	queue_publisher "github.com/acmevents/palco-checkin/internal/service"
)

// PalcoHandler bundles dependencies for the palco catalog and the seat
// occupancy endpoints.
type PalcoHandler struct {
	Palcos  *repository.PalcoRepo
	Seats   *repository.SeatRepo
	Engine  *occupancy.Engine
	Publish func(ctx context.Context, ev queue.CheckinConfirmedEvent) error
}

func NewPalcoHandler(palcos *repository.PalcoRepo, seats *repository.SeatRepo, engine *occupancy.Engine) *PalcoHandler {
	return &PalcoHandler{
		Palcos:  palcos,
		Seats:   seats,
		Engine:  engine,
		Publish: queue_publisher.PublishCheckinConfirmed,
	}
}

type createPalcoReq struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Priority    string `json:"priority"`
	VisualOrder int    `json:"visual_order"`
	Active      *bool  `json:"active"`
}

type createSeatsReq struct {
	RowLetter  string  `json:"row_letter"`
	SeatNumber *uint32 `json:"seat_number"` // single seat
	Count      *uint32 `json:"count"`       // full-row bulk: seats 1..count
}

type assignReq struct {
	PersonID uint64 `json:"person_id"`
}

// List returns the active palcos in display order.
func (h *PalcoHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	rows, err := h.Palcos.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	if rows == nil {
		rows = []model.Palco{}
	}
	return c.JSON(http.StatusOK, rows)
}

// Create registers a new palco (admin only).
func (h *PalcoHandler) Create(c echo.Context) error {
	var req createPalcoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code/name required"})
	}
	p := model.Palco{
		Code:        req.Code,
		Name:        req.Name,
		Priority:    req.Priority,
		VisualOrder: req.VisualOrder,
		Active:      true,
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Palcos.Create(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "palco code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, p)
}

// Grid returns the full seat grid of a palco with derived statuses.
func (h *PalcoHandler) Grid(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	grid, err := h.Engine.Grid(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "palco not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "grid failed"})
	}
	return c.JSON(http.StatusOK, grid)
}

// CreateSeats adds seats to a palco: a single seat when seat_number is
// given, or a full row (1..count) when count is given.
func (h *PalcoHandler) CreateSeats(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req createSeatsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.RowLetter = strings.ToUpper(strings.TrimSpace(req.RowLetter))
	if req.RowLetter == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "row_letter required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if _, err := h.Palcos.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "palco not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	switch {
	case req.Count != nil && *req.Count > 0:
		seats, err := h.Seats.CreateRow(ctx, id, req.RowLetter, *req.Count)
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat code already exists"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
		}
		return c.JSON(http.StatusCreated, seats)
	case req.SeatNumber != nil && *req.SeatNumber > 0:
		seat := model.PalcoSeat{PalcoID: id, RowLetter: req.RowLetter, SeatNumber: *req.SeatNumber}
		if err := h.Seats.Create(ctx, &seat); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return c.JSON(http.StatusConflict, echo.Map{"error": "seat code already exists"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
		}
		return c.JSON(http.StatusCreated, seat)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_number or count required"})
	}
}

// DeleteSeat removes a seat by code, releasing any occupant first.
func (h *PalcoHandler) DeleteSeat(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat code required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	seat, err := h.Seats.GetByCode(ctx, id, code)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if _, err := h.Engine.Release(ctx, seat.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
	}
	if err := h.Seats.Delete(ctx, seat.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Assign links a person to a seat without marking them present.
func (h *PalcoHandler) Assign(c echo.Context) error {
	seatID, err := paramID(c, "seatId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	var req assignReq
	if err := c.Bind(&req); err != nil || req.PersonID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "person_id required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	seat, person, err := h.Engine.Assign(ctx, seatID, req.PersonID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat or person not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat already assigned"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "seat": seat, "person": person})
}

// Present marks the seat's occupant as checked in.
func (h *PalcoHandler) Present(c echo.Context) error {
	seatID, err := paramID(c, "seatId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	seat, person, err := h.Engine.MarkPresent(ctx, seatID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	case errors.Is(err, repository.ErrInvalidState):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no person assigned to this seat"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkin failed"})
	}
	h.publishSeatCheckin(seat, person)
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "seat": seat, "person": person})
}

// Release frees a seat. Releasing an already free seat succeeds and
// reports released=false.
func (h *PalcoHandler) Release(c echo.Context) error {
	seatID, err := paramID(c, "seatId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	released, err := h.Engine.Release(ctx, seatID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "released": released})
}

func (h *PalcoHandler) publishSeatCheckin(seat model.PalcoSeat, person model.Person) {
	if h.Publish == nil {
		return
	}
	ev := queue.CheckinConfirmedEvent{
		PersonID:   person.ID,
		PersonName: person.Name,
		SeatCode:   seat.SeatCode,
		PalcoID:    seat.PalcoID,
		Method:     "seat",
	}
	if seat.PresentAt != nil {
		ev.CheckedInAt = seat.PresentAt.UTC().Format(time.RFC3339)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = h.Publish(ctx, ev)
}
