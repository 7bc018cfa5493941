package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/trailpost/trailpost/internal/helper"
	"github.com/trailpost/trailpost/internal/helper/utils"
	"github.com/trailpost/trailpost/internal/repository"
)

// AuthMiddleware is the request gate: it verifies the access token, reloads
// the account, and rejects blocked accounts and tokens minted before the
// last session-version bump. Token verification alone is not enough; the
// store is the source of truth for revocation.
func AuthMiddleware(auth helper.Auth, repo repository.AccountRepository) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		// cookie first, then Authorization header
		tokenStr := strings.TrimSpace(ctx.Cookies("access_token"))
		if tokenStr == "" {
			tokenStr = bearerToken(ctx.Get("Authorization"))
		}

		claims, err := auth.VerifyToken(tokenStr, helper.TokenAccess)
		if err != nil {
			return utils.ResponseAppError(ctx, err)
		}

		acc, err := repo.FindByID(claims.AccountID)
		if err != nil {
			return utils.ResponseError(ctx, fiber.StatusUnauthorized, "invalid or expired token")
		}

		if !acc.IsActive {
			ClearAuthCookies(ctx)
			return utils.ResponseError(ctx, fiber.StatusForbidden, "account is blocked")
		}

		if claims.SessionVersion != acc.SessionVersion {
			ClearAuthCookies(ctx)
			return utils.ResponseError(ctx, fiber.StatusUnauthorized, "session has been revoked")
		}

		ctx.Locals("accountID", acc.ID)
		ctx.Locals("account", acc)
		ctx.Locals("role", acc.Role)
		return ctx.Next()
	}
}

// RequireRoles allows only the listed roles through. Membership is a flat
// set check; ADMIN is not implicitly a superset of anything.
func RequireRoles(roles ...string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		role, ok := ctx.Locals("role").(string)
		if !ok || role == "" {
			return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
		}

		for _, allowed := range roles {
			if role == allowed {
				return ctx.Next()
			}
		}
		return utils.ResponseError(ctx, fiber.StatusForbidden, "insufficient role")
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	return header
}

// ClearAuthCookies expires both session cookies.
func ClearAuthCookies(ctx *fiber.Ctx) {
	for _, name := range []string{"access_token", "refresh_token"} {
		ctx.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}
