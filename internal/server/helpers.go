package server

import (
	"alumnet/internal/identity"
	"alumnet/internal/models"

	"github.com/gofiber/fiber/v2"
)

// principalFromCtx reads the identity the auth middleware stored in locals.
// The second return is false for anonymous requests.
func principalFromCtx(c *fiber.Ctx) (identity.Principal, bool) {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return identity.Principal{}, false
	}
	p := identity.Principal{UserID: userID}
	if snapshot, ok := c.Locals("author").(models.AuthorSnapshot); ok {
		p.Author = snapshot
	}
	return p, true
}

// viewerID returns the authenticated member id, or "" for anonymous requests.
func viewerID(c *fiber.Ctx) string {
	if p, ok := principalFromCtx(c); ok {
		return p.UserID
	}
	return ""
}

// respondServiceError maps a service error onto the HTTP status its
// application code implies.
func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}
