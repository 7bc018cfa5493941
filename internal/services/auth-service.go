package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trailpost/trailpost/internal/apperr"
	"github.com/trailpost/trailpost/internal/domain"
	"github.com/trailpost/trailpost/internal/dto"
	"github.com/trailpost/trailpost/internal/helper"
	"github.com/trailpost/trailpost/internal/interfaces"
	"github.com/trailpost/trailpost/internal/logging"
	"github.com/trailpost/trailpost/internal/repository"
)

type AuthService interface {
	// Auth
	Register(input dto.RegisterRequest) error
	VerifyEmail(input dto.VerifyEmailRequest) error
	ResendOTP(email string) error
	Login(input dto.LoginRequest) (*dto.TokenPair, *domain.Account, error)
	Refresh(refreshToken string) (*dto.TokenPair, error)
	Logout(accountID uint) error

	// Password lifecycle
	RequestPasswordReset(email string) error
	ResetPassword(input dto.ResetPasswordRequest) error
	ChangePassword(accountID uint, input dto.ChangePasswordRequest) error
	RevokeAllSessions(accountID uint) error

	// Identity & profile
	CurrentIdentity(accountID uint) (*domain.Account, *domain.Profile, error)
	UpdateProfile(accountID uint, input dto.UpdateProfileRequest) (*domain.Profile, error)

	// Admin
	BlockAccount(actorID, targetID uint) error
	UnblockAccount(targetID uint) error
	ListAccounts(page, limit int) ([]domain.Account, int64, error)
	DeleteAccount(targetID uint) error
}

type authService struct {
	repo     repository.AccountRepository
	auth     helper.Auth
	otp      otpEngine
	sessions sessionStore
	producer interfaces.ProducerHandler
	audit    *AuditRecorder
	log      logging.Logger
}

type AuthServiceConfig struct {
	OTPLength    int
	VerifyOTPTTL time.Duration
	ResetOTPTTL  time.Duration

	// Now is a clock override for tests; nil means time.Now.
	Now func() time.Time
}

func NewAuthService(
	repo repository.AccountRepository,
	auth helper.Auth,
	producer interfaces.ProducerHandler,
	audit *AuditRecorder,
	log logging.Logger,
	cfg AuthServiceConfig,
) AuthService {
	return &authService{
		repo:     repo,
		auth:     auth,
		otp:      newOTPEngine(cfg.OTPLength, cfg.VerifyOTPTTL, cfg.ResetOTPTTL, cfg.Now),
		sessions: sessionStore{repo: repo},
		producer: producer,
		audit:    audit,
		log:      log,
	}
}

// Register creates an unverified account, or refreshes the pending one.
// Re-registering an unverified email overwrites the stored password and code
// instead of erroring; only a verified email is refused.
func (s *authService) Register(input dto.RegisterRequest) error {
	email := helper.NormalizeEmail(input.Email)
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)

	if email == "" || strings.TrimSpace(input.Password) == "" || firstName == "" || lastName == "" {
		return apperr.Validation("invalid inputs")
	}
	if len(input.Password) < 6 {
		return apperr.Validation("password must be at least 6 characters")
	}

	hashed, err := s.auth.HashPassword(input.Password)
	if err != nil {
		return err
	}

	acc, err := s.repo.FindByEmail(email)
	switch {
	case err == nil:
		if acc.IsVerified {
			return apperr.Validation("email already registered")
		}
		// pending registration: overwrite password and names, reissue code
		acc.PasswordHash = hashed
		acc.FirstName = firstName
		acc.LastName = lastName
	case apperr.KindOf(err) == apperr.KindNotFound:
		acc = &domain.Account{
			Email:        email,
			PasswordHash: hashed,
			FirstName:    firstName,
			LastName:     lastName,
			Role:         domain.RoleTraveller,
		}
		if acc, err = s.repo.Create(acc); err != nil {
			return err
		}
	default:
		return err
	}

	code, expiresAt, err := s.otp.issue(acc, otpPurposeVerify)
	if err != nil {
		return err
	}
	if err := s.repo.Save(acc); err != nil {
		return err
	}

	s.publishOTP(dto.EventVerifyEmail, acc, code, string(otpPurposeVerify), expiresAt)
	s.audit.Record("account.register", entityAccount, acc.ID, "registration requested")
	return nil
}

// VerifyEmail consumes the pending code and flips the account to verified and
// active, provisioning an empty profile in the same transaction.
func (s *authService) VerifyEmail(input dto.VerifyEmailRequest) error {
	email := helper.NormalizeEmail(input.Email)

	acc, err := s.repo.FindByEmail(email)
	if err != nil {
		return err
	}
	if acc.IsVerified {
		return apperr.Validation("email already verified")
	}

	if err := s.otp.consume(acc, strings.TrimSpace(input.OTP)); err != nil {
		return err
	}

	acc.IsVerified = true
	acc.IsActive = true
	profile := &domain.Profile{AccountID: acc.ID}
	if err := s.repo.VerifyAccount(acc, profile); err != nil {
		return err
	}

	s.audit.Record("account.verify", entityAccount, acc.ID, "email verified")
	return nil
}

// ResendOTP reissues the verification code for a pending registration.
func (s *authService) ResendOTP(email string) error {
	acc, err := s.repo.FindByEmail(helper.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if acc.IsVerified {
		return apperr.Validation("email already verified")
	}

	code, expiresAt, err := s.otp.issue(acc, otpPurposeVerify)
	if err != nil {
		return err
	}
	if err := s.repo.Save(acc); err != nil {
		return err
	}

	s.publishOTP(dto.EventVerifyEmail, acc, code, string(otpPurposeVerify), expiresAt)
	return nil
}

func (s *authService) Login(input dto.LoginRequest) (*dto.TokenPair, *domain.Account, error) {
	email := helper.NormalizeEmail(input.Email)
	password := strings.TrimSpace(input.Password)
	if email == "" || password == "" {
		return nil, nil, apperr.ErrInvalidCredentials
	}

	acc, err := s.authenticate(email, password)
	if err != nil {
		return nil, nil, err
	}

	if !acc.IsVerified {
		return nil, nil, apperr.ErrEmailNotVerified
	}
	if !acc.IsActive {
		return nil, nil, apperr.ErrAccountBlocked
	}

	pair, err := s.issuePair(acc)
	if err != nil {
		return nil, nil, err
	}

	s.audit.Record("account.login", entityAccount, acc.ID, "")
	return pair, acc, nil
}

// authenticate resolves email+password to an account. Unknown email and wrong
// password collapse into the same sentinel; nothing upstream can tell them
// apart.
func (s *authService) authenticate(email, password string) (*domain.Account, error) {
	acc, err := s.repo.FindByEmail(email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.auth.VerifyPassword(password, acc.PasswordHash); err != nil {
		return nil, err
	}
	return acc, nil
}

// Refresh exchanges a refresh token for a new pair. The token must verify,
// carry the account's current session version, and match the stored
// fingerprint. Concurrent refreshes race on save; the loser's pair is
// orphaned and dies on its next use.
func (s *authService) Refresh(refreshToken string) (*dto.TokenPair, error) {
	claims, err := s.auth.VerifyToken(refreshToken, helper.TokenRefresh)
	if err != nil {
		return nil, err
	}

	acc, err := s.repo.FindByID(claims.AccountID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.ErrInvalidToken
		}
		return nil, err
	}

	if !acc.IsActive {
		return nil, apperr.ErrAccountBlocked
	}
	if claims.SessionVersion != acc.SessionVersion {
		return nil, apperr.ErrSessionRevoked
	}
	if !s.sessions.matches(acc, refreshToken) {
		return nil, apperr.ErrInvalidToken
	}

	return s.issuePair(acc)
}

func (s *authService) issuePair(acc *domain.Account) (*dto.TokenPair, error) {
	access, err := s.auth.IssueAccessToken(acc)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not generate token", err)
	}
	refresh, err := s.auth.IssueRefreshToken(acc)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not generate token", err)
	}
	if err := s.sessions.save(acc, refresh); err != nil {
		return nil, err
	}
	return &dto.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *authService) Logout(accountID uint) error {
	if err := s.sessions.clear(accountID); err != nil {
		return err
	}
	s.audit.Record("account.logout", entityAccount, accountID, "")
	return nil
}

// RequestPasswordReset issues a reset code with the longer TTL. A missing
// account surfaces as NotFound here; the transport layer answers with a
// generic success either way.
func (s *authService) RequestPasswordReset(email string) error {
	acc, err := s.repo.FindByEmail(helper.NormalizeEmail(email))
	if err != nil {
		return err
	}

	code, expiresAt, err := s.otp.issue(acc, otpPurposeReset)
	if err != nil {
		return err
	}
	if err := s.repo.Save(acc); err != nil {
		return err
	}

	s.publishOTP(dto.EventResetPassword, acc, code, string(otpPurposeReset), expiresAt)
	s.audit.Record("account.password_reset_requested", entityAccount, acc.ID, "")
	return nil
}

// ResetPassword consumes the reset code, stores the new hash, and revokes
// every outstanding session, all in one transaction.
func (s *authService) ResetPassword(input dto.ResetPasswordRequest) error {
	if len(input.NewPassword) < 6 {
		return apperr.Validation("password must be at least 6 characters")
	}

	acc, err := s.repo.FindByEmail(helper.NormalizeEmail(input.Email))
	if err != nil {
		return err
	}

	if err := s.otp.consume(acc, strings.TrimSpace(input.OTP)); err != nil {
		return err
	}

	hashed, err := s.auth.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	acc.PasswordHash = hashed
	acc.RefreshTokenHash = nil

	if err := s.repo.SaveAndRevokeSessions(acc); err != nil {
		return err
	}

	s.audit.Record("account.password_reset", entityAccount, acc.ID, "")
	return nil
}

func (s *authService) ChangePassword(accountID uint, input dto.ChangePasswordRequest) error {
	if len(input.NewPassword) < 6 {
		return apperr.Validation("password must be at least 6 characters")
	}

	acc, err := s.repo.FindByID(accountID)
	if err != nil {
		return err
	}

	if err := s.auth.VerifyPassword(input.CurrentPassword, acc.PasswordHash); err != nil {
		return apperr.ErrWrongPassword
	}

	hashed, err := s.auth.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	acc.PasswordHash = hashed
	acc.RefreshTokenHash = nil

	if err := s.repo.SaveAndRevokeSessions(acc); err != nil {
		return err
	}

	s.audit.Record("account.password_change", entityAccount, acc.ID, "")
	return nil
}

func (s *authService) RevokeAllSessions(accountID uint) error {
	if err := s.sessions.revoke(accountID); err != nil {
		return err
	}
	s.audit.Record("account.sessions_revoked", entityAccount, accountID, "")
	return nil
}

func (s *authService) CurrentIdentity(accountID uint) (*domain.Account, *domain.Profile, error) {
	acc, err := s.repo.FindByID(accountID)
	if err != nil {
		return nil, nil, err
	}

	profile, err := s.repo.FindProfile(accountID)
	if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return nil, nil, err
	}
	return acc, profile, nil
}

func (s *authService) UpdateProfile(accountID uint, input dto.UpdateProfileRequest) (*domain.Profile, error) {
	profile, err := s.repo.FindProfile(accountID)
	if err != nil {
		return nil, err
	}

	if input.Bio != nil {
		profile.Bio = strings.TrimSpace(*input.Bio)
	}
	if input.Location != nil {
		profile.Location = strings.TrimSpace(*input.Location)
	}
	if input.AvatarURL != nil {
		profile.AvatarURL = strings.TrimSpace(*input.AvatarURL)
	}

	if err := s.repo.SaveProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *authService) BlockAccount(actorID, targetID uint) error {
	if actorID == targetID {
		return apperr.Validation("cannot block own account")
	}

	acc, err := s.repo.FindByID(targetID)
	if err != nil {
		return err
	}

	acc.IsActive = false
	if err := s.repo.Save(acc); err != nil {
		return err
	}

	s.audit.Record("account.block", entityAccount, acc.ID, "blocked by admin")
	return nil
}

func (s *authService) UnblockAccount(targetID uint) error {
	acc, err := s.repo.FindByID(targetID)
	if err != nil {
		return err
	}
	if !acc.IsVerified {
		return apperr.Validation("account is not verified")
	}

	acc.IsActive = true
	if err := s.repo.Save(acc); err != nil {
		return err
	}

	s.audit.Record("account.unblock", entityAccount, acc.ID, "unblocked by admin")
	return nil
}

func (s *authService) ListAccounts(page, limit int) ([]domain.Account, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.List((page-1)*limit, limit)
}

func (s *authService) DeleteAccount(targetID uint) error {
	if _, err := s.repo.FindByID(targetID); err != nil {
		return err
	}
	if err := s.repo.Delete(targetID); err != nil {
		return err
	}

	s.audit.Record("account.delete", entityAccount, targetID, "")
	return nil
}

// publishOTP hands the code to the mail collaborator. Publish failures are
// logged, never propagated; the account row already carries the fingerprint
// and a resend can recover.
func (s *authService) publishOTP(key string, acc *domain.Account, code, purpose string, expiresAt time.Time) {
	if s.producer == nil {
		return
	}

	event := dto.OTPEmailEvent{
		EventID:   uuid.NewString(),
		AccountID: acc.ID,
		Email:     acc.Email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Error(context.Background(), "marshal mail event", "err", err)
		return
	}

	if err := s.producer.PublishMessage([]byte(key), payload); err != nil {
		s.log.Warn(context.Background(), "publish mail event failed", "key", key, "account_id", acc.ID, "err", err)
	}
}
