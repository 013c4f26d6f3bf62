package server

import (
	"fashfolio/internal/middleware"
	"fashfolio/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyCollections handles GET /api/collections
// @Summary List my collections
// @Description Collections owned by the signed-in user.
// @Tags collections
// @Produce json
// @Success 200 {array} models.Collection
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /collections [get]
func (s *Server) GetMyCollections(c *fiber.Ctx) error {
	collections, err := s.collectionService.ListMine(c.UserContext(), middleware.UserKey(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(collections)
}

// CreateCollection handles POST /api/collections
// @Summary Create collection
// @Description Create an empty collection.
// @Tags collections
// @Accept json
// @Produce json
// @Param request body object{name=string,description=string} true "Collection"
// @Success 201 {object} models.Collection
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /collections [post]
func (s *Server) CreateCollection(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	collection, err := s.collectionService.CreateCollection(c.UserContext(), middleware.UserKey(c), req.Name, req.Description)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(collection)
}

// GetCollection handles GET /api/collections/:id
// @Summary Get collection
// @Description A collection with the outfits visible to the caller.
// @Tags collections
// @Produce json
// @Param id path string true "Collection ID"
// @Success 200 {object} models.CollectionView
// @Failure 404 {object} models.ErrorResponse
// @Router /collections/{id} [get]
func (s *Server) GetCollection(c *fiber.Ctx) error {
	view, err := s.collectionService.GetCollection(c.UserContext(), middleware.UserKey(c), c.Params("id"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(view)
}

// AddCollectionOutfit handles POST /api/collections/:id/outfits/:outfitId
// @Summary Add outfit to collection
// @Description Add an outfit visible to the owner to their collection.
// @Tags collections
// @Produce json
// @Param id path string true "Collection ID"
// @Param outfitId path string true "Outfit ID"
// @Success 200 {object} models.Collection
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /collections/{id}/outfits/{outfitId} [post]
func (s *Server) AddCollectionOutfit(c *fiber.Ctx) error {
	collection, err := s.collectionService.AddOutfit(c.UserContext(), middleware.UserKey(c), c.Params("id"), c.Params("outfitId"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(collection)
}

// RemoveCollectionOutfit handles DELETE /api/collections/:id/outfits/:outfitId
// @Summary Remove outfit from collection
// @Description Remove an outfit from an owned collection.
// @Tags collections
// @Produce json
// @Param id path string true "Collection ID"
// @Param outfitId path string true "Outfit ID"
// @Success 200 {object} models.Collection
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /collections/{id}/outfits/{outfitId} [delete]
func (s *Server) RemoveCollectionOutfit(c *fiber.Ctx) error {
	collection, err := s.collectionService.RemoveOutfit(c.UserContext(), middleware.UserKey(c), c.Params("id"), c.Params("outfitId"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(collection)
}
