// Package middleware provides HTTP middleware for authentication, logging, rate limiting and tracing.
package middleware

import (
	"context"
	"strings"

	"miniblog/internal/models"
	"miniblog/internal/observability"

	"github.com/gofiber/fiber/v2"
)

const (
	LocalUser   = "user"
	LocalUserID = "userID"
)

// TokenVerifier resolves a bearer token to a user.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer") {
		return ""
	}
	parts := strings.Split(header, " ")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func attachUser(c *fiber.Ctx, user *models.User) {
	c.Locals(LocalUser, user)
	c.Locals(LocalUserID, user.ID)
	c.SetUserContext(context.WithValue(c.UserContext(), observability.UserIDKey, user.ID))
}

// AuthRequired rejects requests without a valid bearer token with 401.
func AuthRequired(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("Not authorized"))
		}

		user, err := verifier.VerifyToken(c.UserContext(), token)
		if err != nil {
			if models.ErrorCode(err) != models.CodeUnauthorized {
				return models.RespondWithError(c, fiber.StatusInternalServerError, err)
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		attachUser(c, user)
		return c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and otherwise
// continues anonymously.
func OptionalAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := BearerToken(c); token != "" {
			if user, err := verifier.VerifyToken(c.UserContext(), token); err == nil {
				attachUser(c, user)
			}
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated caller, or nil for anonymous requests.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(LocalUser).(*models.User)
	return user
}
