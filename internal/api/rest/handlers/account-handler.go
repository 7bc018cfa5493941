package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trailpost/trailpost/internal/api/rest/middleware"
	"github.com/trailpost/trailpost/internal/dto"
	"github.com/trailpost/trailpost/internal/helper/utils"
	"github.com/trailpost/trailpost/internal/services"
)

type AccountHandler struct {
	svc services.AuthService
}

func NewAccountHandler(svc services.AuthService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) SetupRoutes(app *fiber.App, gate fiber.Handler) {
	me := app.Group("/api/me", gate)

	me.Get("/", h.Me)
	me.Patch("/profile", h.UpdateProfile)
	me.Post("/change-password", h.ChangePassword)
	me.Post("/revoke-sessions", h.RevokeSessions)
	me.Delete("/", h.DeleteAccount)
}

func (h *AccountHandler) Me(ctx *fiber.Ctx) error {
	accountID, ok := ctx.Locals("accountID").(uint)
	if !ok || accountID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	acc, profile, err := h.svc.CurrentIdentity(accountID)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	resp := dto.IdentityResponse{Account: toAccountResponse(acc)}
	if profile != nil {
		resp.Profile = &dto.ProfileResponse{
			Bio:       profile.Bio,
			Location:  profile.Location,
			AvatarURL: profile.AvatarURL,
		}
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *AccountHandler) UpdateProfile(ctx *fiber.Ctx) error {
	accountID, ok := ctx.Locals("accountID").(uint)
	if !ok || accountID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.UpdateProfileRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	profile, err := h.svc.UpdateProfile(accountID, requestBody)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.ProfileResponse{
		Bio:       profile.Bio,
		Location:  profile.Location,
		AvatarURL: profile.AvatarURL,
	})
}

func (h *AccountHandler) ChangePassword(ctx *fiber.Ctx) error {
	accountID, ok := ctx.Locals("accountID").(uint)
	if !ok || accountID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.ChangePasswordRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.CurrentPassword == "" || requestBody.NewPassword == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "current_password and new_password are required")
	}

	if err := h.svc.ChangePassword(accountID, requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	// every session is revoked, this one included
	middleware.ClearAuthCookies(ctx)
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "password changed, please log in again")
}

func (h *AccountHandler) RevokeSessions(ctx *fiber.Ctx) error {
	accountID, ok := ctx.Locals("accountID").(uint)
	if !ok || accountID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.svc.RevokeAllSessions(accountID); err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	middleware.ClearAuthCookies(ctx)
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "all sessions revoked")
}

func (h *AccountHandler) DeleteAccount(ctx *fiber.Ctx) error {
	accountID, ok := ctx.Locals("accountID").(uint)
	if !ok || accountID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.svc.DeleteAccount(accountID); err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	middleware.ClearAuthCookies(ctx)
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "account deleted")
}
