package helper

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/trailpost/trailpost/internal/apperr"
	"github.com/trailpost/trailpost/internal/domain"
)

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Claims is embedded in both token kinds. SessionVersion pins the token to
// the account's session epoch at issuance time; Kind stops an access token
// from being replayed against the refresh endpoint (distinct secrets already
// make that fail, the claim makes the rejection explicit).
type Claims struct {
	jwt.RegisteredClaims
	AccountID      uint      `json:"account_id"`
	Role           string    `json:"role"`
	SessionVersion uint      `json:"session_version"`
	Kind           TokenKind `json:"kind"`
}

type Auth struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	bcryptCost    int
}

func SetupAuth(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, bcryptCost int) Auth {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return Auth{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		bcryptCost:    bcryptCost,
	}
}

func (a Auth) IssueAccessToken(acc *domain.Account) (string, error) {
	return a.issue(acc, TokenAccess, a.accessSecret, a.accessTTL)
}

func (a Auth) IssueRefreshToken(acc *domain.Account) (string, error) {
	return a.issue(acc, TokenRefresh, a.refreshSecret, a.refreshTTL)
}

func (a Auth) issue(acc *domain.Account, kind TokenKind, secret []byte, ttl time.Duration) (string, error) {
	if acc == nil || acc.ID == 0 {
		return "", errors.New("required inputs are missing to generate token")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			// jti makes every token distinct even within the same second,
			// so rotation always changes the stored fingerprint
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(acc.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		AccountID:      acc.ID,
		Role:           acc.Role,
		SessionVersion: acc.SessionVersion,
		Kind:           kind,
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", errors.New("unable to sign the token")
	}
	return signed, nil
}

// VerifyToken checks signature, expiry, and kind. It deliberately does not
// consult storage; session-revocation checks belong to the caller.
func (a Auth) VerifyToken(tokenString string, kind TokenKind) (*Claims, error) {
	if tokenString == "" {
		return nil, apperr.ErrInvalidToken
	}

	secret := a.accessSecret
	if kind == TokenRefresh {
		secret = a.refreshSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrInvalidToken
	}
	if !token.Valid || claims.Kind != kind || claims.AccountID == 0 {
		return nil, apperr.ErrInvalidToken
	}

	return claims, nil
}

func (a Auth) HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), a.bcryptCost)
	if err != nil {
		return "", errors.New("failed to hash password")
	}
	return string(hashed), nil
}

// VerifyPassword returns the shared invalid-credentials sentinel so a wrong
// password is indistinguishable from an unknown email upstream.
func (a Auth) VerifyPassword(plain, hashed string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)); err != nil {
		return apperr.ErrInvalidCredentials
	}
	return nil
}
