package main

import (
	"net"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startAdminServer(t *testing.T, token string) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	auth := func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) != "Bearer "+token {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.Next()
	}
	app.Get("/admin/cache/stats", auth, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"lookups": 7, "hits": 3, "exact_hits": 1})
	})
	app.Delete("/admin/cache", auth, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

func TestAdminClient(t *testing.T) {
	base := startAdminServer(t, "tok")

	client := &adminClient{baseURL: base, token: "tok"}
	stats, err := client.cacheStats()
	require.NoError(t, err)
	assert.EqualValues(t, 7, stats.Lookups)
	assert.EqualValues(t, 3, stats.Hits)
	assert.EqualValues(t, 1, stats.ExactHits)

	assert.NoError(t, client.purge())
}

func TestAdminClient_Unauthorized(t *testing.T) {
	base := startAdminServer(t, "tok")

	client := &adminClient{baseURL: base, token: "wrong"}
	_, err := client.cacheStats()
	assert.ErrorContains(t, err, "status 401")
}
