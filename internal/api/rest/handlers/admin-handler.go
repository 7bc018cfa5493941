package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trailpost/trailpost/internal/dto"
	"github.com/trailpost/trailpost/internal/helper/utils"
	"github.com/trailpost/trailpost/internal/services"
)

type AdminHandler struct {
	svc services.AuthService
}

func NewAdminHandler(svc services.AuthService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) SetupRoutes(app *fiber.App, gate, adminOnly fiber.Handler) {
	admin := app.Group("/api/admin", gate, adminOnly)

	admin.Get("/accounts", h.ListAccounts)
	admin.Patch("/accounts/:accountID/block", h.BlockAccount)
	admin.Patch("/accounts/:accountID/unblock", h.UnblockAccount)
	admin.Delete("/accounts/:accountID", h.DeleteAccount)
}

func (h *AdminHandler) ListAccounts(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 20)

	accounts, total, err := h.svc.ListAccounts(page, limit)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	resp := dto.ListAccountsResponse{
		Accounts: make([]dto.AccountResponse, 0, len(accounts)),
		Total:    total,
		Page:     page,
		Limit:    limit,
	}
	for i := range accounts {
		resp.Accounts = append(resp.Accounts, toAccountResponse(&accounts[i]))
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *AdminHandler) BlockAccount(ctx *fiber.Ctx) error {
	actorID, _ := ctx.Locals("accountID").(uint)
	targetID, err := ctx.ParamsInt("accountID")
	if err != nil || targetID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid account id")
	}

	if err := h.svc.BlockAccount(actorID, uint(targetID)); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "account blocked")
}

func (h *AdminHandler) UnblockAccount(ctx *fiber.Ctx) error {
	targetID, err := ctx.ParamsInt("accountID")
	if err != nil || targetID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid account id")
	}

	if err := h.svc.UnblockAccount(uint(targetID)); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "account unblocked")
}

func (h *AdminHandler) DeleteAccount(ctx *fiber.Ctx) error {
	actorID, _ := ctx.Locals("accountID").(uint)
	targetID, err := ctx.ParamsInt("accountID")
	if err != nil || targetID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid account id")
	}
	if uint(targetID) == actorID {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "use /api/me to delete your own account")
	}

	if err := h.svc.DeleteAccount(uint(targetID)); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "account deleted")
}
