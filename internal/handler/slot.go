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

func SetupSlotRoutes(e *echo.Echo, slots *service.SlotService, authMiddleware echo.MiddlewareFunc) {
	teacherOnly := middleware.RequireRole(model.RoleTeacher)
	studentOnly := middleware.RequireRole(model.RoleStudent)

	g := e.Group("/api/slots", authMiddleware)

	g.POST("", CreateSlot(slots), teacherOnly)
	g.GET("", GetMySlots(slots), teacherOnly)
	g.GET("/available", GetAvailableSlots(slots), studentOnly)
	g.PATCH("/:id/meeting-link", SetMeetingLink(slots), teacherOnly)
	g.DELETE("/:id", DeleteSlot(slots), teacherOnly)
}

type createSlotRequest struct {
	StartTime       time.Time `json:"start_time" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=15,max=480"`
	ClassType       string    `json:"class_type" validate:"required,oneof=class exam"`
	Modality        string    `json:"modality" validate:"required,oneof=virtual in_person"`
	Course          string    `json:"course" validate:"required"`
	Level           *string   `json:"level"`
	Capacity        int       `json:"capacity" validate:"omitempty,min=1"`
	MeetingLink     *string   `json:"meeting_link" validate:"omitempty,url"`
}

// CreateSlot publishes a new bookable slot for the authenticated teacher
func CreateSlot(slots *service.SlotService) echo.HandlerFunc {
	return func(c echo.Context) error {
		teacherID, ok := userID(c)
		if !ok {
			return badRequest(c, "missing user id")
		}

		var req createSlotRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if err := c.Validate(&req); err != nil {
			return err
		}

		slot, err := slots.Create(c.Request().Context(), teacherID, service.CreateSlotInput{
			StartTime:       req.StartTime,
			DurationMinutes: req.DurationMinutes,
			ClassType:       model.ClassType(req.ClassType),
			Modality:        model.Modality(req.Modality),
			Course:          req.Course,
			Level:           req.Level,
			Capacity:        req.Capacity,
			MeetingLink:     req.MeetingLink,
		})
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(http.StatusCreated, slot)
	}
}

// GetMySlots returns all slots published by the authenticated teacher
func GetMySlots(slots *service.SlotService) echo.HandlerFunc {
	return func(c echo.Context) error {
		teacherID, ok := userID(c)
		if !ok {
			return badRequest(c, "missing user id")
		}

		result, err := slots.ListForTeacher(c.Request().Context(), teacherID)
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(http.StatusOK, result)
	}
}

// GetAvailableSlots returns the future slots of the student's assigned teacher
func GetAvailableSlots(slots *service.SlotService) echo.HandlerFunc {
	return func(c echo.Context) error {
		studentID, ok := userID(c)
		if !ok {
			return badRequest(c, "missing user id")
		}

		result, err := slots.ListAvailableForStudent(c.Request().Context(), studentID)
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(http.StatusOK, result)
	}
}

type meetingLinkRequest struct {
	MeetingLink string `json:"meeting_link" validate:"required,url"`
}

// SetMeetingLink updates the meeting link on the teacher's slot
func SetMeetingLink(slots *service.SlotService) echo.HandlerFunc {
	return func(c echo.Context) error {
		teacherID, ok := userID(c)
		if !ok {
			return badRequest(c, "missing user id")
		}

		slotID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return badRequest(c, "invalid slot id")
		}

		var req meetingLinkRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if err := c.Validate(&req); err != nil {
			return err
		}

		slot, err := slots.SetMeetingLink(c.Request().Context(), teacherID, slotID, req.MeetingLink)
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(http.StatusOK, slot)
	}
}

// DeleteSlot removes a slot that has no reservations
func DeleteSlot(slots *service.SlotService) echo.HandlerFunc {
	return func(c echo.Context) error {
		teacherID, ok := userID(c)
		if !ok {
			return badRequest(c, "missing user id")
		}

		slotID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return badRequest(c, "invalid slot id")
		}

		if err := slots.Delete(c.Request().Context(), teacherID, slotID); err != nil {
			return serviceError(c, err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}
