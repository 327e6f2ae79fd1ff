package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/acmevents/palco-checkin/internal/store"
)

// SeatMatrixHandler serves the flat seat grid of the JSON-file fallback
// mode: row-by-row seat codes plus the derived status of every seat a
// person references.
type SeatMatrixHandler struct {
	Store *store.JSONStore
}

func NewSeatMatrixHandler(s *store.JSONStore) *SeatMatrixHandler {
	return &SeatMatrixHandler{Store: s}
}

// Matrix handles GET /api/seats.
func (h *SeatMatrixHandler) Matrix(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	m, err := h.Store.SeatMatrix(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "matrix failed"})
	}
	return c.JSON(http.StatusOK, m)
}
