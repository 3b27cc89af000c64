package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// AuthMiddleware guards the inspection endpoints with a shared bearer
// token. An empty configured token disables the guard, which is only
// meant for local development.
func (server *Server) AuthMiddleware(c fiber.Ctx) error {
	if server.authToken == "" {
		return c.Next()
	}
	header := c.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(server.authToken)) != 1 {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	return c.Next()
}
