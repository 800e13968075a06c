package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lessonhub/booking_service/internal/middleware"
	"github.com/lessonhub/booking_service/internal/service"
)

func SetupReminderRoutes(e *echo.Echo, reminders *service.ReminderService, dispatchToken string) {
	g := e.Group("/internal/reminders", middleware.DispatchToken(dispatchToken))

	g.POST("/dispatch", DispatchReminders(reminders))
}

// DispatchReminders runs one dispatcher pass for the external trigger and
// returns the per-stage summary. Overlapping invocations are safe.
func DispatchReminders(reminders *service.ReminderService) echo.HandlerFunc {
	return func(c echo.Context) error {
		summary, err := reminders.Dispatch(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "dispatch failed"})
		}

		return c.JSON(http.StatusOK, summary)
	}
}
