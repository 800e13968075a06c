package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lessonhub/booking_service/internal/model"
)

const testSecret = "test-secret"

func authContext(header string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func passThrough(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(testSecret, 42, model.RoleTeacher, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != 42 || claims.Role != string(model.RoleTeacher) {
		t.Fatalf("expected the issued identity back, got %d/%s", claims.UserID, claims.Role)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, 42, model.RoleStudent, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ValidateToken("other-secret", token); err == nil {
		t.Fatalf("expected a token signed with another secret to be rejected")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := GenerateToken(testSecret, 42, model.RoleStudent, -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ValidateToken(testSecret, token); err == nil {
		t.Fatalf("expected an expired token to be rejected")
	}
}

func TestJWTAuth_SetsIdentity(t *testing.T) {
	token, err := GenerateToken(testSecret, 7, model.RoleStudent, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	c, rec := authContext("Bearer " + token)

	handler := JWTAuth(testSecret)(func(c echo.Context) error {
		if got, _ := c.Get("user_id").(int64); got != 7 {
			t.Fatalf("expected user_id 7 in context, got %v", c.Get("user_id"))
		}
		if got, _ := c.Get("role").(string); got != string(model.RoleStudent) {
			t.Fatalf("expected student role in context, got %v", c.Get("role"))
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestJWTAuth_RejectsMissingAndMalformedHeaders(t *testing.T) {
	for _, header := range []string{"", "Basic abc", "Bearer not-a-token"} {
		c, rec := authContext(header)

		if err := JWTAuth(testSecret)(passThrough)(c); err != nil {
			t.Fatalf("header %q: %v", header, err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	c, rec := authContext("")
	c.Set("role", string(model.RoleStudent))

	if err := RequireRole(model.RoleTeacher)(passThrough)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for the wrong role, got %d", rec.Code)
	}

	c, rec = authContext("")
	c.Set("role", string(model.RoleTeacher))

	if err := RequireRole(model.RoleTeacher)(passThrough)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for the matching role, got %d", rec.Code)
	}
}

func TestDispatchToken(t *testing.T) {
	e := echo.New()

	run := func(configured, sent string) int {
		req := httptest.NewRequest(http.MethodPost, "/internal/reminders/dispatch", nil)
		if sent != "" {
			req.Header.Set("X-Dispatch-Token", sent)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := DispatchToken(configured)(passThrough)(c); err != nil {
			t.Fatalf("handler: %v", err)
		}
		return rec.Code
	}

	if got := run("s3cret", "s3cret"); got != http.StatusOK {
		t.Fatalf("expected 200 for the right token, got %d", got)
	}
	if got := run("s3cret", "wrong"); got != http.StatusUnauthorized {
		t.Fatalf("expected 401 for the wrong token, got %d", got)
	}
	// Пустой настроенный токен закрывает endpoint полностью
	if got := run("", ""); got != http.StatusUnauthorized {
		t.Fatalf("expected 401 when no token is configured, got %d", got)
	}
}
