package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lessonhub/booking_service/internal/middleware"
	"github.com/lessonhub/booking_service/internal/model"
	"github.com/lessonhub/booking_service/internal/service"
)

func SetupPolicyRoutes(e *echo.Echo, policies *service.PolicyService, authMiddleware echo.MiddlewareFunc) {
	teacherOnly := middleware.RequireRole(model.RoleTeacher)

	g := e.Group("/api/policies", authMiddleware)

	g.GET("/global", GetGlobalPolicy(policies))
	g.PUT("/global", SetGlobalPolicy(policies), teacherOnly)

	// Each teacher manages their own override
	g.GET("/teacher", GetTeacherPolicy(policies), teacherOnly)
	g.PUT("/teacher", SetTeacherPolicy(policies), teacherOnly)
	g.DELETE("/teacher", ClearTeacherPolicy(policies), teacherOnly)
}

type dayPolicyRequest struct {
	// Weekdays permitted for booking, 0 = Sunday ... 6 = Saturday
	Weekdays []int `json:"weekdays" validate:"required,min=1,max=7,dive,min=0,max=6"`
}

type dayPolicyResponse struct {
	Weekdays  []int      `json:"weekdays"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// GetGlobalPolicy returns the global day policy; absence permits all days
func GetGlobalPolicy(policies *service.PolicyService) echo.HandlerFunc {
	return func(c echo.Context) error {
		policy, err := policies.GetGlobal(c.Request().Context())
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(http.StatusOK, policyResponse(policy))
	}
}

// SetGlobalPolicy replaces the global day policy
func SetGlobalPolicy(policies *service.PolicyService) echo.HandlerFunc {
	return func(c echo.Context) error {
		weekdays, err := bindWeekdays(c)
		if err != nil {
			return err
		}

		if err := policies.SetGlobal(c.Request().Context(), weekdays); err != nil {
			return serviceError(c, err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}

// GetTeacherPolicy returns the authenticated teacher's override
func GetTeacherPolicy(policies *service.PolicyService) echo.HandlerFunc {
	return func(c echo.Context) error {
		teacherID, ok := userID(c)
		if !ok {
			return badRequest(c, "missing user id")
		}

		policy, err := policies.GetForTeacher(c.Request().Context(), teacherID)
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(http.StatusOK, policyResponse(policy))
	}
}

// SetTeacherPolicy replaces the authenticated teacher's override
func SetTeacherPolicy(policies *service.PolicyService) echo.HandlerFunc {
	return func(c echo.Context) error {
		teacherID, ok := userID(c)
		if !ok {
			return badRequest(c, "missing user id")
		}

		weekdays, err := bindWeekdays(c)
		if err != nil {
			return err
		}

		if err := policies.SetForTeacher(c.Request().Context(), teacherID, weekdays); err != nil {
			return serviceError(c, err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}

// ClearTeacherPolicy removes the override, falling back to the global policy
func ClearTeacherPolicy(policies *service.PolicyService) echo.HandlerFunc {
	return func(c echo.Context) error {
		teacherID, ok := userID(c)
		if !ok {
			return badRequest(c, "missing user id")
		}

		if err := policies.ClearForTeacher(c.Request().Context(), teacherID); err != nil {
			return serviceError(c, err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}

func bindWeekdays(c echo.Context) (model.WeekdaySet, error) {
	var req dayPolicyRequest
	if err := c.Bind(&req); err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return 0, err
	}

	var days []time.Weekday
	for _, d := range req.Weekdays {
		days = append(days, time.Weekday(d))
	}

	return model.NewWeekdaySet(days...), nil
}

func policyResponse(policy *model.DayPolicy) dayPolicyResponse {
	if policy == nil {
		// Политика не настроена - разрешены все дни
		return dayPolicyResponse{Weekdays: weekdayNumbers(model.AllWeekdays)}
	}

	updatedAt := policy.UpdatedAt
	return dayPolicyResponse{
		Weekdays:  weekdayNumbers(policy.Weekdays),
		UpdatedAt: &updatedAt,
	}
}

func weekdayNumbers(s model.WeekdaySet) []int {
	var nums []int
	for _, d := range s.Weekdays() {
		nums = append(nums, int(d))
	}
	return nums
}
