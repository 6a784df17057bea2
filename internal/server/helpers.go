package server

import (
	"log/slog"
	"strconv"
	"strings"

	"miniblog/internal/models"
	"miniblog/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// mapServiceError maps an error from the service layer to an HTTP status.
func mapServiceError(err error) int {
	switch models.ErrorCode(err) {
	case models.CodeValidation, models.CodeConflict:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeMethodNotAllowed:
		return fiber.StatusMethodNotAllowed
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err using the status its code maps to. Server errors are logged.
func respondError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status >= fiber.StatusInternalServerError {
		observability.Logger.ErrorContext(c.UserContext(), "Request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// parsePostID reads the :id parameter. Anything that is not a positive integer
// cannot name a post, so it is reported as not found.
func parsePostID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError("Post")
	}
	return uint(id), nil
}

// parsePage reads ?page, falling back to 1 for missing or invalid values.
func parsePage(c *fiber.Ctx) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// parseJSONBody decodes a non-empty body into dest. An empty body leaves dest untouched.
func parseJSONBody(c *fiber.Ctx, dest any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dest); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}
