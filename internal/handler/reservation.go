package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lessonhub/booking_service/internal/middleware"
	"github.com/lessonhub/booking_service/internal/model"
	"github.com/lessonhub/booking_service/internal/service"
)

func SetupReservationRoutes(e *echo.Echo, bookings *service.BookingService, authMiddleware echo.MiddlewareFunc) {
	studentOnly := middleware.RequireRole(model.RoleStudent)

	g := e.Group("/api/reservations", authMiddleware, studentOnly)

	g.POST("", CreateReservation(bookings))
	g.GET("", GetMyReservations(bookings))
	g.DELETE("/:id", CancelReservation(bookings))
}

type createReservationRequest struct {
	SlotID    *uuid.UUID `json:"slot_id"`
	StartTime time.Time  `json:"start_time" validate:"required_without=SlotID"`
	ClassType string     `json:"class_type" validate:"required_without=SlotID,omitempty,oneof=class exam"`
	Modality  string     `json:"modality" validate:"required_without=SlotID,omitempty,oneof=virtual in_person"`
	Course    string     `json:"course" validate:"required_without=SlotID"`
	Level     *string    `json:"level"`
	Notes     *string    `json:"notes"`
}

// CreateReservation books a slot or an ad-hoc time for the authenticated student
func CreateReservation(bookings *service.BookingService) echo.HandlerFunc {
	return func(c echo.Context) error {
		studentID, ok := userID(c)
		if !ok {
			return badRequest(c, "missing user id")
		}

		var req createReservationRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if err := c.Validate(&req); err != nil {
			return err
		}

		reservation, err := bookings.Book(c.Request().Context(), studentID, service.BookInput{
			SlotPublicID: req.SlotID,
			StartTime:    req.StartTime,
			ClassType:    model.ClassType(req.ClassType),
			Modality:     model.Modality(req.Modality),
			Course:       req.Course,
			Level:        req.Level,
			Notes:        req.Notes,
		})
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(http.StatusCreated, reservation)
	}
}

// GetMyReservations returns the student's reservations, soonest first
func GetMyReservations(bookings *service.BookingService) echo.HandlerFunc {
	return func(c echo.Context) error {
		studentID, ok := userID(c)
		if !ok {
			return badRequest(c, "missing user id")
		}

		reservations, err := bookings.ListForStudent(c.Request().Context(), studentID)
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(http.StatusOK, reservations)
	}
}

// CancelReservation deletes the reservation while the 24h window is open
func CancelReservation(bookings *service.BookingService) echo.HandlerFunc {
	return func(c echo.Context) error {
		studentID, ok := userID(c)
		if !ok {
			return badRequest(c, "missing user id")
		}

		reservationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return badRequest(c, "invalid reservation id")
		}

		if err := bookings.Cancel(c.Request().Context(), studentID, reservationID); err != nil {
			return serviceError(c, err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}
