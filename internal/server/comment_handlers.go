package server

import (
	"fashfolio/internal/middleware"
	"fashfolio/internal/models"
	"fashfolio/internal/notifications"
	"fashfolio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/outfits/:id/comments
// @Summary List comments
// @Description List comments on a visible outfit.
// @Tags engagement
// @Produce json
// @Param id path string true "Outfit ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /outfits/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	comments, err := s.engagementService.ListComments(c.UserContext(), middleware.UserKey(c), c.Params("id"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/outfits/:id/comments
// @Summary Create comment
// @Description Comment on a visible outfit and increment its comment count.
// @Tags engagement
// @Accept json
// @Produce json
// @Param id path string true "Outfit ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /outfits/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.CreateCommentInput{
		Actor:    middleware.UserKey(c),
		OutfitID: c.Params("id"),
		Content:  req.Content,
	}
	if user := currentUser(c); user != nil {
		in.AuthorName = user.DisplayName()
		in.AuthorAvatar = user.Photo
	}

	comment, err := s.engagementService.CreateComment(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	s.publishUserEvent(c.UserContext(), comment.OutfitOwnerKey, in.Actor, notifications.EventOutfitCommented,
		map[string]interface{}{"outfitId": comment.OutfitID, "commentId": comment.ID})
	return c.Status(fiber.StatusCreated).JSON(comment)
}
