package middleware

import (
	"errors"
	"strings"

	"staff-match/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
)

const (
	CtxActorIDKey = "actor_id"
	CtxClaimsKey  = "claims"
)

// AuthMiddleware resolves the feedback actor from a bearer access token.
type AuthMiddleware struct {
	tokens jwt.Service
}

func NewAuthMiddleware(tokens jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if m.tokens == nil {
			return challenge(c, "Unauthorized", nil)
		}
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return challenge(c, "Unauthorized", nil)
		}

		claims, err := m.tokens.ValidateToken(raw)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return challenge(c, "Token expired", err)
		case err != nil:
			return challenge(c, "Invalid token", err)
		}

		c.Locals(CtxActorIDKey, claims.ActorID)
		c.Locals(CtxClaimsKey, claims)
		return c.Next()
	}
}

// ActorID returns the authenticated actor, or "" on public routes.
func ActorID(c fiber.Ctx) string {
	v, _ := c.Locals(CtxActorIDKey).(string)
	return v
}

func challenge(c fiber.Ctx, msg string, cause error) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="staff-match"`)
	return NewAppError(fiber.StatusUnauthorized, msg, nil, cause)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
