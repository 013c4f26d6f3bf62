package server

import (
	"log/slog"

	"fashfolio/internal/middleware"
	"fashfolio/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AdminDeleteUser handles DELETE /api/admin/users/:key. It removes the user
// with their outfits, likes and follow edges.
// @Summary Delete user
// @Description Delete a user with their outfits, likes and follow edges.
// @Tags admin
// @Produce json
// @Param key path string true "User key"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{key} [delete]
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	key := c.Params("key")
	if key == middleware.UserKey(c) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Admins cannot delete themselves"))
	}

	if err := s.userService.DeleteUser(ctx, key); err != nil {
		return models.RespondWithAppError(c, err)
	}

	middleware.Logger.InfoContext(ctx, "User deleted by admin", slog.String("target", key))
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// GetFeatureFlags returns configured feature flags and evaluated state for current user.
// @Summary Feature flags
// @Description Configured flags and their state for the caller.
// @Tags admin
// @Produce json
// @Success 200 {object} object{raw=map[string]string,evaluated=map[string]bool}
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	key := middleware.UserKey(c)

	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(key),
	})
}
