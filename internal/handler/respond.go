package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lessonhub/booking_service/internal/service"
)

// serviceError maps the service error taxonomy onto stable HTTP responses.
// Only a storage outage falls through to 500.
func serviceError(c echo.Context, err error) error {
	var rejection *service.PolicyRejection
	if errors.As(err, &rejection) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error":  "booking rejected",
			"reason": string(rejection.Reason),
		})
	}

	switch {
	case errors.Is(err, service.ErrSlotNotFound),
		errors.Is(err, service.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrSlotConflict),
		errors.Is(err, service.ErrSlotHasReservations):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrTooLateToCancel):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrNotTeacher):
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func userID(c echo.Context) (int64, bool) {
	id, ok := c.Get("user_id").(int64)
	return id, ok
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}
