package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailpost/trailpost/internal/apperr"
	"github.com/trailpost/trailpost/internal/domain"
)

func TestOTPIssueSetsBothFields(t *testing.T) {
	clock := newFakeClock()
	engine := newOTPEngine(6, 15*time.Minute, 30*time.Minute, clock.Now)
	acc := &domain.Account{ID: 1}

	code, expiresAt, err := engine.issue(acc, otpPurposeVerify)
	require.NoError(t, err)

	assert.Len(t, code, 6)
	require.NotNil(t, acc.OtpHash)
	require.NotNil(t, acc.OtpExpiresAt)
	assert.Equal(t, clock.Now().Add(15*time.Minute), expiresAt)
	assert.Equal(t, expiresAt, *acc.OtpExpiresAt)
	assert.Len(t, *acc.OtpHash, 64, "fingerprint, not the raw code, is stored")
}

func TestOTPResetPurposeUsesLongerTTL(t *testing.T) {
	clock := newFakeClock()
	engine := newOTPEngine(6, 15*time.Minute, 30*time.Minute, clock.Now)
	acc := &domain.Account{ID: 1}

	_, expiresAt, err := engine.issue(acc, otpPurposeReset)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(30*time.Minute), expiresAt)
}

func TestOTPIssueOverwritesPending(t *testing.T) {
	clock := newFakeClock()
	engine := newOTPEngine(6, 15*time.Minute, 30*time.Minute, clock.Now)
	acc := &domain.Account{ID: 1}

	first, _, err := engine.issue(acc, otpPurposeVerify)
	require.NoError(t, err)
	_, _, err = engine.issue(acc, otpPurposeVerify)
	require.NoError(t, err)

	// only the newest code is live
	assert.ErrorIs(t, engine.consume(acc, first), apperr.ErrOTPInvalid)
}

func TestOTPConsumeExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	engine := newOTPEngine(6, 15*time.Minute, 30*time.Minute, clock.Now)

	acc := &domain.Account{ID: 1}
	code, _, err := engine.issue(acc, otpPurposeVerify)
	require.NoError(t, err)

	clock.Advance(15*time.Minute - time.Second)
	require.NoError(t, engine.consume(acc, code))

	acc = &domain.Account{ID: 2}
	code, _, err = engine.issue(acc, otpPurposeVerify)
	require.NoError(t, err)

	clock.Advance(15*time.Minute + time.Second)
	assert.ErrorIs(t, engine.consume(acc, code), apperr.ErrOTPExpired)
}

func TestOTPConsumeSingleUse(t *testing.T) {
	clock := newFakeClock()
	engine := newOTPEngine(6, 15*time.Minute, 30*time.Minute, clock.Now)
	acc := &domain.Account{ID: 1}

	code, _, err := engine.issue(acc, otpPurposeVerify)
	require.NoError(t, err)

	require.NoError(t, engine.consume(acc, code))
	assert.Nil(t, acc.OtpHash)
	assert.Nil(t, acc.OtpExpiresAt)

	assert.ErrorIs(t, engine.consume(acc, code), apperr.ErrNoPendingOTP)
}

func TestOTPConsumeWrongCode(t *testing.T) {
	clock := newFakeClock()
	engine := newOTPEngine(6, 15*time.Minute, 30*time.Minute, clock.Now)
	acc := &domain.Account{ID: 1}

	_, _, err := engine.issue(acc, otpPurposeVerify)
	require.NoError(t, err)

	assert.ErrorIs(t, engine.consume(acc, "000000x"), apperr.ErrOTPInvalid)
	// a failed attempt does not burn the pending code
	assert.True(t, acc.HasPendingOTP())
}

func TestOTPConsumeNoPending(t *testing.T) {
	engine := newOTPEngine(6, 15*time.Minute, 30*time.Minute, nil)
	acc := &domain.Account{ID: 1}

	assert.ErrorIs(t, engine.consume(acc, "123456"), apperr.ErrNoPendingOTP)
}
