package server

import (
	"fashfolio/internal/models"
	"fashfolio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProducts handles GET /api/products
// @Summary List products
// @Description Studio products, newest first.
// @Tags studio
// @Produce json
// @Success 200 {array} models.Product
// @Router /products [get]
func (s *Server) GetProducts(c *fiber.Ctx) error {
	products, err := s.studioService.ListProducts(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(products)
}

// CreateProduct handles POST /api/products
// @Summary Create product
// @Description Add a studio product.
// @Tags studio
// @Accept json
// @Produce json
// @Param request body service.CreateProductInput true "Product"
// @Success 201 {object} models.Product
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products [post]
func (s *Server) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.validate.Struct(req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(validationMessage(err)))
	}

	product, err := s.studioService.CreateProduct(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// TagProduct handles POST /api/products/:id/vision
// @Summary Tag product
// @Description Run the vision agent on a product and store its tags.
// @Tags studio
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /products/{id}/vision [post]
func (s *Server) TagProduct(c *fiber.Ctx) error {
	product, err := s.studioService.TagProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(product)
}

// AnalyzeTrends handles GET /api/analyze-trends
// @Summary Analyze trends
// @Description Products ordered by the trend agent.
// @Tags studio
// @Produce json
// @Success 200 {array} models.Product
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /analyze-trends [get]
func (s *Server) AnalyzeTrends(c *fiber.Ctx) error {
	products, err := s.studioService.AnalyzeTrends(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(products)
}

// ScoreUsers handles POST /api/score-users. The body is a JSON array of
// user snapshots; the script output is returned as-is.
// @Summary Score users
// @Description Score user snapshots with the scoring agent.
// @Tags studio
// @Accept json
// @Produce json
// @Param request body []models.UserSnapshot true "Users"
// @Success 200 {object} object
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /score-users [post]
func (s *Server) ScoreUsers(c *fiber.Ctx) error {
	var users []models.UserSnapshot
	if err := parseBody(c, &users); err != nil {
		return nil
	}
	for i := range users {
		if err := s.validate.Struct(users[i]); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(validationMessage(err)))
		}
	}

	out, err := s.studioService.ScoreUsers(c.UserContext(), users)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(out)
}

// RankUsers handles POST /api/users/ai-ranking
// @Summary Rank users
// @Description Rank stored users with the scoring agent.
// @Tags studio
// @Produce json
// @Success 200 {object} object
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/ai-ranking [post]
func (s *Server) RankUsers(c *fiber.Ctx) error {
	out, err := s.studioService.RankUsers(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(out)
}

// SeynaCommand handles POST /api/seyna/command
// @Summary Run Seyna
// @Description Send a goal to the Seyna orchestrator.
// @Tags studio
// @Accept json
// @Produce json
// @Param request body object{goal=string} true "Goal"
// @Success 200 {object} relay.SeynaReport
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /seyna/command [post]
func (s *Server) SeynaCommand(c *fiber.Ctx) error {
	var req struct {
		Goal string `json:"goal"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	report, err := s.studioService.Seyna(c.UserContext(), req.Goal)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(report)
}

// AgentChat handles POST /api/agent/chat
// @Summary Agent chat
// @Description Chat with the studio agent.
// @Tags studio
// @Accept json
// @Produce json
// @Param request body object{message=string,context=string} true "Message"
// @Success 200 {object} relay.AgentReply
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /agent/chat [post]
func (s *Server) AgentChat(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
		Context string `json:"context"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	reply, err := s.studioService.AgentChat(c.UserContext(), req.Message, req.Context)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(reply)
}
