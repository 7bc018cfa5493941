package services

import (
	"github.com/trailpost/trailpost/internal/domain"
	"github.com/trailpost/trailpost/internal/helper/utils"
	"github.com/trailpost/trailpost/internal/repository"
)

// sessionStore tracks the single live refresh session per account. save is
// last-write-wins: a second login silently orphans the first refresh token,
// which then fails matches on its next use.
type sessionStore struct {
	repo repository.AccountRepository
}

func (s sessionStore) save(acc *domain.Account, refreshToken string) error {
	fingerprint := utils.Sha256Hex(refreshToken)
	if err := s.repo.SaveRefreshSession(acc.ID, &fingerprint); err != nil {
		return err
	}
	acc.RefreshTokenHash = &fingerprint
	return nil
}

func (s sessionStore) matches(acc *domain.Account, refreshToken string) bool {
	if acc.RefreshTokenHash == nil {
		return false
	}
	return utils.Sha256Hex(refreshToken) == *acc.RefreshTokenHash
}

func (s sessionStore) clear(accountID uint) error {
	return s.repo.SaveRefreshSession(accountID, nil)
}

// revoke clears the stored fingerprint and bumps the session version in one
// write; every previously minted token now fails the version comparison.
func (s sessionStore) revoke(accountID uint) error {
	return s.repo.RevokeSessions(accountID)
}
