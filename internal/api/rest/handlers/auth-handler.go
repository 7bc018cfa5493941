package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trailpost/trailpost/internal/apperr"
	"github.com/trailpost/trailpost/internal/api/rest/middleware"
	"github.com/trailpost/trailpost/internal/domain"
	"github.com/trailpost/trailpost/internal/dto"
	"github.com/trailpost/trailpost/internal/helper/utils"
	"github.com/trailpost/trailpost/internal/services"
)

type AuthHandler struct {
	svc        services.AuthService
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthHandler(svc services.AuthService, secure bool, accessTTL, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{svc: svc, secure: secure, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (h *AuthHandler) SetupRoutes(app *fiber.App, gate fiber.Handler) {
	auth := app.Group("/api/auth")

	auth.Post("/register", h.Register)
	auth.Post("/verify-email", h.VerifyEmail)
	auth.Post("/resend-otp", h.ResendOTP)
	auth.Post("/login", h.Login)
	auth.Post("/refresh", h.Refresh)
	auth.Post("/forgot-password", h.ForgotPassword)
	auth.Post("/reset-password", h.ResetPassword)

	auth.Post("/logout", gate, h.Logout)
}

func (h *AuthHandler) Register(ctx *fiber.Ctx) error {
	var requestBody dto.RegisterRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}
	if !looksLikeEmail(requestBody.Email) {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide a valid email")
	}

	if err := h.svc.Register(requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, "verification code sent")
}

func (h *AuthHandler) VerifyEmail(ctx *fiber.Ctx) error {
	var requestBody dto.VerifyEmailRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Email == "" || requestBody.OTP == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email and otp are required")
	}

	if err := h.svc.VerifyEmail(requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "email verified")
}

func (h *AuthHandler) ResendOTP(ctx *fiber.Ctx) error {
	var requestBody dto.ResendOTPRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Email == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email is required")
	}

	if err := h.svc.ResendOTP(requestBody.Email); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "verification code sent")
}

func (h *AuthHandler) Login(ctx *fiber.Ctx) error {
	var requestBody dto.LoginRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email and password are required")
	}

	pair, acc, err := h.svc.Login(requestBody)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	h.setAuthCookies(ctx, pair)
	return utils.ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{
		"access_token": pair.AccessToken,
		"account":      toAccountResponse(acc),
	})
}

func (h *AuthHandler) Refresh(ctx *fiber.Ctx) error {
	token := strings.TrimSpace(ctx.Cookies("refresh_token"))
	if token == "" {
		var requestBody dto.RefreshRequest
		if err := ctx.BodyParser(&requestBody); err == nil {
			token = strings.TrimSpace(requestBody.RefreshToken)
		}
	}
	if token == "" {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "missing refresh token")
	}

	pair, err := h.svc.Refresh(token)
	if err != nil {
		middleware.ClearAuthCookies(ctx)
		return utils.ResponseAppError(ctx, err)
	}

	h.setAuthCookies(ctx, pair)
	return utils.ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{
		"access_token": pair.AccessToken,
	})
}

func (h *AuthHandler) Logout(ctx *fiber.Ctx) error {
	accountID, ok := ctx.Locals("accountID").(uint)
	if !ok || accountID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.svc.Logout(accountID); err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	middleware.ClearAuthCookies(ctx)
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "logged out")
}

func (h *AuthHandler) ForgotPassword(ctx *fiber.Ctx) error {
	var requestBody dto.ForgotPasswordRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Email == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email is required")
	}

	err := h.svc.RequestPasswordReset(requestBody.Email)
	if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return utils.ResponseAppError(ctx, err)
	}
	// same answer whether or not the account exists
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "if that email exists, a reset code has been sent")
}

func (h *AuthHandler) ResetPassword(ctx *fiber.Ctx) error {
	var requestBody dto.ResetPasswordRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Email == "" || requestBody.OTP == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email, otp and new_password are required")
	}

	if err := h.svc.ResetPassword(requestBody); err != nil {
		// collapse code failures into one message; which of them happened
		// reveals verification state
		if isOTPError(err) {
			return utils.ResponseError(ctx, fiber.StatusUnauthorized, "invalid or expired code")
		}
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "password reset successfully")
}

func (h *AuthHandler) setAuthCookies(ctx *fiber.Ctx, pair *dto.TokenPair) {
	ctx.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    pair.AccessToken,
		MaxAge:   int(h.accessTTL.Seconds()),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	ctx.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    pair.RefreshToken,
		MaxAge:   int(h.refreshTTL.Seconds()),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func isOTPError(err error) bool {
	return errors.Is(err, apperr.ErrNoPendingOTP) ||
		errors.Is(err, apperr.ErrOTPExpired) ||
		errors.Is(err, apperr.ErrOTPInvalid)
}

func looksLikeEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

func toAccountResponse(acc *domain.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:         acc.ID,
		Email:      acc.Email,
		FirstName:  acc.FirstName,
		LastName:   acc.LastName,
		Role:       acc.Role,
		IsVerified: acc.IsVerified,
		IsActive:   acc.IsActive,
	}
}
