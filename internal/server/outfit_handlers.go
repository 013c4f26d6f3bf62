package server

import (
	"io"
	"strings"
	"time"

	"fashfolio/internal/middleware"
	"fashfolio/internal/models"
	"fashfolio/internal/notifications"
	"fashfolio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed?mode=global|following
// @Summary Compose feed
// @Description Newest outfits from everyone, or from followed users when mode is following.
// @Tags feed
// @Produce json
// @Param mode query string false "global or following"
// @Success 200 {array} models.FeedItem
// @Failure 400 {object} models.ErrorResponse
// @Router /feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	items, err := s.feedService.Compose(c.UserContext(), c.Query("mode", service.FeedGlobal), middleware.UserKey(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(items)
}

// GetOutfits handles GET /api/outfits?scope=&user=&season=&mood=&q=&page=
// @Summary List outfits
// @Description Page through outfits filtered by scope, owner, season, mood and text.
// @Tags outfits
// @Produce json
// @Param scope query string false "personal or global"
// @Param user query string false "Owner key"
// @Param season query string false "Season filter"
// @Param mood query string false "Mood filter"
// @Param q query string false "Text search"
// @Param page query int false "Page number"
// @Success 200 {array} models.FeedItem
// @Failure 400 {object} models.ErrorResponse
// @Router /outfits [get]
func (s *Server) GetOutfits(c *fiber.Ctx) error {
	items, err := s.outfitService.ListOutfits(c.UserContext(), service.ListOutfitsInput{
		Actor:  middleware.UserKey(c),
		Scope:  c.Query("scope", service.ScopeGlobal),
		User:   c.Query("user"),
		Season: c.Query("season"),
		Mood:   c.Query("mood"),
		Query:  c.Query("q"),
		Page:   parsePage(c),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(items)
}

type createOutfitRequest struct {
	ImageURL    string               `json:"imageUrl"`
	PublicID    string               `json:"publicId"`
	Season      string               `json:"season"`
	Mood        string               `json:"mood"`
	Description string               `json:"description"`
	Items       models.OutfitItems   `json:"items"`
	Context     models.OutfitContext `json:"context"`
	WearDate    string               `json:"wearDate"`
	IsPublic    *bool                `json:"isPublic"`
}

// CreateOutfit handles POST /api/outfits
// @Summary Create outfit
// @Description Create an outfit for the signed-in user. publicId must be one of their uploads.
// @Tags outfits
// @Accept json
// @Produce json
// @Param request body createOutfitRequest true "Outfit"
// @Success 201 {object} models.Outfit
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /outfits [post]
func (s *Server) CreateOutfit(c *fiber.Ctx) error {
	var req createOutfitRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	wearDate, err := parseWearDate(req.WearDate)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("wearDate must be a date (YYYY-MM-DD) or RFC 3339 timestamp"))
	}

	outfit, err := s.outfitService.CreateOutfit(c.UserContext(), service.CreateOutfitInput{
		Actor:       middleware.UserKey(c),
		ImageURL:    req.ImageURL,
		PublicID:    req.PublicID,
		Season:      req.Season,
		Mood:        req.Mood,
		Description: req.Description,
		Items:       req.Items,
		Context:     req.Context,
		WearDate:    wearDate,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(outfit)
}

func parseWearDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, models.NewValidationError("invalid wearDate")
}

// UploadOutfitImage handles POST /api/outfits/upload (multipart field "file")
// @Summary Upload outfit image
// @Description Store an image as WebP and return its key and URL.
// @Tags outfits
// @Produce json
// @Param file formData file true "Image file"
// @Success 201 {object} media.Stored
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /outfits/upload [post]
func (s *Server) UploadOutfitImage(c *fiber.Ctx) error {
	var content []byte
	if header, err := c.FormFile("file"); err == nil {
		f, err := header.Open()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid image file"))
		}
		defer func() { _ = f.Close() }()

		// One byte past the limit is enough for the processor to reject it.
		content, err = io.ReadAll(io.LimitReader(f, s.config.MaxUploadBytes()+1))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid image file"))
		}
	}

	stored, err := s.outfitService.UploadImage(c.UserContext(), middleware.UserKey(c), content)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(stored)
}

// AnalyzeOutfit handles POST /api/outfits/analyze
// @Summary Analyze outfit image
// @Description Describe an outfit photo. analysis is null when vision is not configured.
// @Tags outfits
// @Accept json
// @Produce json
// @Param request body object{imageUrl=string} true "Image URL"
// @Success 200 {object} object{analysis=relay.OutfitAnalysis}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /outfits/analyze [post]
func (s *Server) AnalyzeOutfit(c *fiber.Ctx) error {
	var req struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("imageUrl is required"))
	}

	return c.JSON(fiber.Map{
		"analysis": s.outfitService.Analyze(c.UserContext(), req.ImageURL),
	})
}

// GetOutfit handles GET /api/outfits/:id
// @Summary Get outfit
// @Description Get one outfit. Private outfits are only visible to their owner.
// @Tags outfits
// @Produce json
// @Param id path string true "Outfit ID"
// @Success 200 {object} models.FeedItem
// @Failure 404 {object} models.ErrorResponse
// @Router /outfits/{id} [get]
func (s *Server) GetOutfit(c *fiber.Ctx) error {
	item, err := s.outfitService.GetOutfit(c.UserContext(), middleware.UserKey(c), c.Params("id"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(item)
}

// UpdateOutfit handles PATCH /api/outfits/:id
// @Summary Update outfit
// @Description Change season, mood, description or visibility of an owned outfit.
// @Tags outfits
// @Accept json
// @Produce json
// @Param id path string true "Outfit ID"
// @Param request body models.OutfitPatch true "Fields to change"
// @Success 200 {object} models.Outfit
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /outfits/{id} [patch]
func (s *Server) UpdateOutfit(c *fiber.Ctx) error {
	var patch models.OutfitPatch
	if err := parseBody(c, &patch); err != nil {
		return nil
	}

	outfit, err := s.outfitService.UpdateOutfit(c.UserContext(), middleware.UserKey(c), c.Params("id"), patch)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(outfit)
}

// DeleteOutfit handles DELETE /api/outfits/:id
// @Summary Delete outfit
// @Description Delete an owned outfit with its likes, comments and unreferenced image.
// @Tags outfits
// @Produce json
// @Param id path string true "Outfit ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /outfits/{id} [delete]
func (s *Server) DeleteOutfit(c *fiber.Ctx) error {
	if err := s.outfitService.DeleteOutfit(c.UserContext(), middleware.UserKey(c), c.Params("id")); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Outfit deleted successfully"})
}

// ToggleLike handles POST /api/outfits/:id/like
// @Summary Toggle like
// @Description Like the outfit, or remove the like if already present.
// @Tags engagement
// @Produce json
// @Param id path string true "Outfit ID"
// @Success 200 {object} models.LikeResult
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /outfits/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	ctx, actor := c.UserContext(), middleware.UserKey(c)
	result, err := s.engagementService.ToggleLike(ctx, actor, c.Params("id"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if result.Liked {
		s.publishUserEvent(ctx, result.OwnerKey, actor, notifications.EventOutfitLiked,
			map[string]interface{}{"outfitId": c.Params("id"), "likesCount": result.LikesCount})
	}
	return c.JSON(result)
}
