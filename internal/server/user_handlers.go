package server

import (
	"fashfolio/internal/middleware"
	"fashfolio/internal/models"
	"fashfolio/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me. The record was synced from the
// token claims by SyncUser.
// @Summary Get my profile
// @Description Profile of the signed-in user, including their email.
// @Tags users
// @Produce json
// @Success 200 {object} models.Profile
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	key := middleware.UserKey(c)
	profile, err := s.userService.Profile(c.UserContext(), key, key)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// GetSuggestedUsers handles GET /api/users/suggested
// @Summary Suggest users
// @Description Users the signed-in user does not follow yet.
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/suggested [get]
func (s *Server) GetSuggestedUsers(c *fiber.Ctx) error {
	users, err := s.userService.Suggested(c.UserContext(), middleware.UserKey(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(users)
}

// GetUserProfile handles GET /api/users/:key
// @Summary Get user profile
// @Description Public profile with follower counts.
// @Tags users
// @Produce json
// @Param key path string true "User key"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{key} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	profile, err := s.userService.Profile(c.UserContext(), c.Params("key"), middleware.UserKey(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// GetUserOutfits handles GET /api/users/:key/outfits?page=
// @Summary List user outfits
// @Description Outfits of one user visible to the caller.
// @Tags users
// @Produce json
// @Param key path string true "User key"
// @Param page query int false "Page number"
// @Success 200 {array} models.FeedItem
// @Router /users/{key}/outfits [get]
func (s *Server) GetUserOutfits(c *fiber.Ctx) error {
	items, err := s.outfitService.ListByOwner(c.UserContext(), middleware.UserKey(c), c.Params("key"), parsePage(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(items)
}

// GetFollowers handles GET /api/users/:key/followers
// @Summary List followers
// @Description Users following the given user.
// @Tags users
// @Produce json
// @Param key path string true "User key"
// @Success 200 {array} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{key}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	users, err := s.userService.Followers(c.UserContext(), c.Params("key"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:key/following
// @Summary List following
// @Description Users the given user follows.
// @Tags users
// @Produce json
// @Param key path string true "User key"
// @Success 200 {array} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{key}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	users, err := s.userService.Following(c.UserContext(), c.Params("key"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(users)
}

// FollowUser handles POST /api/users/:key/follow
// @Summary Follow user
// @Description Follow a user. Following twice is a no-op.
// @Tags users
// @Produce json
// @Param key path string true "User key"
// @Success 200 {object} object{following=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{key}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	ctx, actor, key := c.UserContext(), middleware.UserKey(c), c.Params("key")
	if err := s.userService.Follow(ctx, actor, key); err != nil {
		return models.RespondWithAppError(c, err)
	}
	s.publishUserEvent(ctx, key, actor, notifications.EventUserFollowed, nil)
	return c.JSON(fiber.Map{"following": true})
}

// UnfollowUser handles DELETE /api/users/:key/follow
// @Summary Unfollow user
// @Description Stop following a user.
// @Tags users
// @Produce json
// @Param key path string true "User key"
// @Success 200 {object} object{following=bool}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{key}/follow [delete]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	if err := s.userService.Unfollow(c.UserContext(), middleware.UserKey(c), c.Params("key")); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"following": false})
}
