package server

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"fashfolio/internal/middleware"
	"fashfolio/internal/models"
	"fashfolio/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const localUser = "user"

// SyncUser loads or lazily creates the user record for the verified
// identity and stores it in locals. It must run after the authenticator.
func (s *Server) SyncUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.userService.EnsureUser(c.UserContext(), identityFrom(c))
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		c.Locals(localUser, user)
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after SyncUser so that the user record is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		if user == nil || !user.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

func identityFrom(c *fiber.Ctx) service.Identity {
	id := service.Identity{Key: middleware.UserKey(c)}
	if claims := middleware.Claims(c); claims != nil {
		id.Email = claims.Email
		id.Username = claims.Username
		id.FirstName = claims.FirstName
		id.LastName = claims.LastName
		id.Picture = claims.Picture
	}
	return id
}

// parsePage reads the 1-based page query parameter. Missing or invalid
// values mean the first page.
func parsePage(c *fiber.Ctx) int {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	return page
}

// parseCoordinates reads the lat and lon query parameters.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseCoordinates(c *fiber.Ctx) (float64, float64, error) {
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(c.Query("lat")), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(c.Query("lon")), 64)
	if latErr != nil || lonErr != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("lat and lon are required numbers"))
		return 0, 0, errResponseWritten
	}
	return lat, lon, nil
}

// parseBody decodes the JSON body into dest.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseBody(c *fiber.Ctx, dest interface{}) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage flattens validator errors into one readable line.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fe.Field()+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
