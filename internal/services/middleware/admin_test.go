package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Egham-7/pitchside/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminApp(cfg models.AdminConfig) *fiber.App {
	app := fiber.New()
	app.Get("/admin/ping", NewAdminAuth(cfg).Handler(), func(c *fiber.Ctx) error {
		return c.SendString("pong:" + AdminSubject(c))
	})
	return app
}

func TestAdminAuth(t *testing.T) {
	cfg := models.AdminConfig{JWTSecret: "s3cret", Issuer: "pitchside"}
	valid, err := IssueToken(cfg, "ops", time.Minute)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ops",
		Issuer:    "pitchside",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	otherSecret, err := IssueToken(models.AdminConfig{JWTSecret: "other", Issuer: "pitchside"}, "ops", time.Minute)
	require.NoError(t, err)
	wrongIssuer, err := IssueToken(models.AdminConfig{JWTSecret: "s3cret", Issuer: "someone"}, "ops", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, fiber.StatusOK},
		{"missing", "", fiber.StatusUnauthorized},
		{"not bearer", valid, fiber.StatusUnauthorized},
		{"expired", "Bearer " + expired, fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + otherSecret, fiber.StatusUnauthorized},
		{"wrong issuer", "Bearer " + wrongIssuer, fiber.StatusUnauthorized},
	}

	app := newAdminApp(cfg)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAdminAuth_OpenWithoutSecret(t *testing.T) {
	app := newAdminApp(models.AdminConfig{})
	resp, err := app.Test(httptest.NewRequest("GET", "/admin/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	_, err := IssueToken(models.AdminConfig{}, "ops", time.Minute)
	assert.Error(t, err)
}
