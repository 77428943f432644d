package middleware

import (
	"crypto/subtle"
	"log/slog"
	"restock-service/app/domain"
	"restock-service/app/handler/api/response"
	"restock-service/config"
	"restock-service/pkg"
	"restock-service/pkg/ctxutil"

	"github.com/gofiber/fiber/v2"
)

type AuthInternalHeader string

const (
	AuthInternalHeaderKey AuthInternalHeader = "X-Internal-Auth"
)

func AuthInternal(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(string(AuthInternalHeaderKey))
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}
		if subtle.ConstantTimeCompare([]byte(authHeader), []byte(cfg.InternalAuthHeader)) != 1 {
			slog.WarnContext(c.UserContext(), "[middleware] AuthInternal", "header", "mismatch")
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}

		return c.Next()
	}
}

// Auth accepts a customer bearer token and stores its uid as the customer id.
func Auth(secretKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		token, err := pkg.GetTokenFromHeaders(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			slog.WarnContext(ctx, "[middleware] Auth", "GetTokenFromHeaders", err)
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}

		claims, err := pkg.ParseJwtToken(token, secretKey)
		if err != nil {
			slog.WarnContext(ctx, "[middleware] Auth", "ParseJwtToken", err)
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}

		if claims.UID <= 0 {
			slog.WarnContext(ctx, "[middleware] Auth", "customerID", claims.UID)
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}

		c.Locals(ctxutil.CustomerIDKey, claims.UID)
		c.SetUserContext(ctxutil.WithCustomerID(ctx, claims.UID))
		return c.Next()
	}
}
