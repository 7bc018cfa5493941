package services

import (
	"time"

	"github.com/trailpost/trailpost/internal/apperr"
	"github.com/trailpost/trailpost/internal/domain"
	"github.com/trailpost/trailpost/internal/helper/utils"
)

type otpPurpose string

const (
	otpPurposeVerify otpPurpose = "verify"
	otpPurposeReset  otpPurpose = "reset"
)

// otpEngine owns code generation and the expiry policy. It mutates account
// fields only; committing them together with whatever state change the code
// gates is the caller's job, so a consumed code can never be replayed.
type otpEngine struct {
	length    int
	verifyTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

func newOTPEngine(length int, verifyTTL, resetTTL time.Duration, now func() time.Time) otpEngine {
	if now == nil {
		now = time.Now
	}
	return otpEngine{length: length, verifyTTL: verifyTTL, resetTTL: resetTTL, now: now}
}

// issue generates a fresh code and stores its fingerprint and expiry on the
// account, overwriting any prior pending code. Returns the plain code for
// the mail event.
func (e otpEngine) issue(acc *domain.Account, purpose otpPurpose) (string, time.Time, error) {
	code, err := utils.RandomOTP(e.length)
	if err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.KindInternal, "failed to generate code", err)
	}

	ttl := e.verifyTTL
	if purpose == otpPurposeReset {
		ttl = e.resetTTL
	}

	hash := utils.Sha256Hex(code)
	expiresAt := e.now().Add(ttl)
	acc.OtpHash = &hash
	acc.OtpExpiresAt = &expiresAt
	return code, expiresAt, nil
}

// consume validates the supplied code and clears both OTP fields on success.
func (e otpEngine) consume(acc *domain.Account, code string) error {
	if !acc.HasPendingOTP() {
		return apperr.ErrNoPendingOTP
	}
	if e.now().After(*acc.OtpExpiresAt) {
		return apperr.ErrOTPExpired
	}
	if utils.Sha256Hex(code) != *acc.OtpHash {
		return apperr.ErrOTPInvalid
	}

	acc.OtpHash = nil
	acc.OtpExpiresAt = nil
	return nil
}
