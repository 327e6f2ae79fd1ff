package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/acmevents/palco-checkin/internal/config"
	"github.com/acmevents/palco-checkin/internal/model"
	"github.com/acmevents/palco-checkin/internal/queue"
	"github.com/acmevents/palco-checkin/internal/repository"
	queue_publisher "github.com/acmevents/palco-checkin/internal/service"
)

// searchLimit caps person search results.
const searchLimit = 50

// dbTimeout bounds every store call made from a handler.
const dbTimeout = 5 * time.Second

// PersonStore is the person registry as the handlers see it. It is
// implemented by repository.PersonRepo (mysql driver) and
// store.JSONStore (file driver).
type PersonStore interface {
	List(ctx context.Context) ([]model.Person, error)
	Create(ctx context.Context, p *model.Person) error
	Update(ctx context.Context, id uint64, upd model.PersonUpdate) (model.Person, error)
	Delete(ctx context.Context, id uint64) (bool, error)
	CheckInByID(ctx context.Context, id uint64) (model.Person, error)
	CheckInByName(ctx context.Context, name string, autocreate bool) (model.Person, error)
	Search(ctx context.Context, q string, limit int) ([]model.Person, error)
}

// PersonHandler bundles dependencies for the person registry endpoints.
// Publish emits check-in events; leaving it nil disables publishing.
type PersonHandler struct {
	Store   PersonStore
	Cfg     config.Config
	Publish func(ctx context.Context, ev queue.CheckinConfirmedEvent) error

	// ReleaseSeat frees whatever seat a person holds before deletion so
	// no seat is left with a stale present flag. Nil when the store has
	// no seat catalog (file driver).
	ReleaseSeat func(ctx context.Context, personID uint64) (bool, error)
}

func NewPersonHandler(store PersonStore, cfg config.Config) *PersonHandler {
	return &PersonHandler{Store: store, Cfg: cfg, Publish: queue_publisher.PublishCheckinConfirmed}
}

type createPersonReq struct {
	Name  string `json:"name"`
	Doc   string `json:"doc"`
	Org   string `json:"org"`
	Cargo string `json:"cargo"`
	Seat  string `json:"seat"`
}

type checkinByNameReq struct {
	Name string `json:"name"`
}

// List returns all people, newest first.
func (h *PersonHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	rows, err := h.Store.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	if rows == nil {
		rows = []model.Person{}
	}
	return c.JSON(http.StatusOK, rows)
}

// Create registers a new person. Name is the only required field.
func (h *PersonHandler) Create(c echo.Context) error {
	var req createPersonReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	p := model.Person{Name: req.Name, Doc: req.Doc, Org: req.Org, Cargo: req.Cargo}
	if s := strings.ToUpper(strings.TrimSpace(req.Seat)); s != "" {
		p.SeatCode = &s
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Store.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, p)
}

// Update applies a partial update to the allowed person fields.
func (h *PersonHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var upd model.PersonUpdate
	if err := c.Bind(&upd); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	p, err := h.Store.Update(ctx, id, upd)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes a person and reports how many records were deleted.
func (h *PersonHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if h.ReleaseSeat != nil {
		if _, err := h.ReleaseSeat(ctx, id); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
		}
	}
	deleted, err := h.Store.Delete(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	n := 0
	if deleted {
		n = 1
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}

// CheckInByID marks a person present by id; a seat is not required.
func (h *PersonHandler) CheckInByID(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	p, err := h.Store.CheckInByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkin failed"})
	}
	h.publishCheckin(p, "id")
	return c.JSON(http.StatusOK, p)
}

// CheckInByName marks a person present by exact name match. Whether a
// missing person is auto-created is a deployment decision
// (CHECKIN_AUTOCREATE); the default is to require explicit creation.
func (h *PersonHandler) CheckInByName(c echo.Context) error {
	var req checkinByNameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	p, err := h.Store.CheckInByName(ctx, req.Name, h.Cfg.CheckinAutoCreate)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "person not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkin failed"})
	}
	h.publishCheckin(p, "name")
	return c.JSON(http.StatusOK, p)
}

// Search performs a substring search across name, doc, org and cargo.
func (h *PersonHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	rows, err := h.Store.Search(ctx, q, searchLimit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	if rows == nil {
		rows = []model.Person{}
	}
	return c.JSON(http.StatusOK, rows)
}

// publishCheckin emits a check-in event, best effort. Failures are
// logged by the publisher and never affect the response.
func (h *PersonHandler) publishCheckin(p model.Person, method string) {
	if h.Publish == nil {
		return
	}
	ev := queue.CheckinConfirmedEvent{
		PersonID:   p.ID,
		PersonName: p.Name,
		Method:     method,
	}
	if p.SeatCode != nil {
		ev.SeatCode = *p.SeatCode
	}
	if p.PresentAt != nil {
		ev.CheckedInAt = p.PresentAt.UTC().Format(time.RFC3339)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = h.Publish(ctx, ev)
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
