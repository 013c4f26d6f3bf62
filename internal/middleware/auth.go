// Package middleware provides authentication, logging, rate limiting and
// tracing middleware for the application.
package middleware

import (
	"context"
	"strings"

	"fashfolio/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// Locals keys populated by the authenticator.
const (
	LocalUserKey = "userKey"
	LocalClaims  = "identityClaims"
)

// IdentityClaims are the profile claims carried by the identity token.
type IdentityClaims struct {
	Subject   string
	Email     string
	Username  string
	FirstName string
	LastName  string
	Picture   string
}

// AuthConfig configures token verification.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// Authenticator verifies bearer tokens issued by the external identity provider.
type Authenticator struct {
	cfg   AuthConfig
	redis *redis.Client
}

// NewAuthenticator returns an Authenticator. rdb may be nil, in which case
// token revocation is not checked.
func NewAuthenticator(cfg AuthConfig, rdb *redis.Client) *Authenticator {
	return &Authenticator{cfg: cfg, redis: rdb}
}

// Required rejects requests without a valid token.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := a.Verify(c.UserContext(), tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		setIdentity(c, claims)
		return c.Next()
	}
}

// Optional attaches the identity when a valid token is present and lets
// guests through otherwise.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := a.Verify(c.UserContext(), tokenString); err == nil {
				setIdentity(c, claims)
			}
		}
		return c.Next()
	}
}

// Verify parses tokenString and returns its identity claims.
func (a *Authenticator) Verify(ctx context.Context, tokenString string) (*IdentityClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(a.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}

	if a.cfg.Issuer != "" {
		if issuer, _ := claims.GetIssuer(); issuer != a.cfg.Issuer {
			return nil, models.NewUnauthorizedError("Invalid token issuer")
		}
	}
	if a.cfg.Audience != "" {
		audience, _ := claims.GetAudience()
		if !containsString(audience, a.cfg.Audience) {
			return nil, models.NewUnauthorizedError("Invalid token audience")
		}
	}

	sub, _ := claims.GetSubject()
	if strings.TrimSpace(sub) == "" {
		return nil, models.NewUnauthorizedError("Invalid subject claim")
	}

	// Check JTI for revocation
	if jti, exists := claims["jti"].(string); exists && jti != "" && a.redis != nil {
		revoked, err := a.redis.Exists(ctx, "blacklist:"+jti).Result()
		if err == nil && revoked > 0 {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	return &IdentityClaims{
		Subject:   sub,
		Email:     stringClaim(claims, "email"),
		Username:  stringClaim(claims, "preferred_username"),
		FirstName: stringClaim(claims, "given_name"),
		LastName:  stringClaim(claims, "family_name"),
		Picture:   stringClaim(claims, "picture"),
	}, nil
}

// UserKey returns the authenticated external key, or "" for guests.
func UserKey(c *fiber.Ctx) string {
	if key, ok := c.Locals(LocalUserKey).(string); ok {
		return key
	}
	return ""
}

// Claims returns the identity claims of the authenticated request, if any.
func Claims(c *fiber.Ctx) *IdentityClaims {
	if claims, ok := c.Locals(LocalClaims).(*IdentityClaims); ok {
		return claims
	}
	return nil
}

func setIdentity(c *fiber.Ctx, claims *IdentityClaims) {
	c.Locals(LocalUserKey, claims.Subject)
	c.Locals(LocalClaims, claims)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.Subject))
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func stringClaim(claims jwt.MapClaims, name string) string {
	v, _ := claims[name].(string)
	return v
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
