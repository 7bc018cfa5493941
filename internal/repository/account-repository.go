package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/trailpost/trailpost/internal/apperr"
	"github.com/trailpost/trailpost/internal/domain"
	"github.com/trailpost/trailpost/internal/helper"
)

type AccountRepository interface {
	Create(acc *domain.Account) (*domain.Account, error)
	Save(acc *domain.Account) error
	FindByEmail(email string) (*domain.Account, error)
	FindByID(id uint) (*domain.Account, error)

	// VerifyAccount commits the verified flags, the cleared OTP fields, and
	// the freshly provisioned profile in one transaction.
	VerifyAccount(acc *domain.Account, profile *domain.Profile) error

	// SaveRefreshSession overwrites the stored refresh fingerprint. A nil
	// fingerprint clears the session (logout).
	SaveRefreshSession(id uint, fingerprint *string) error

	// RevokeSessions clears the fingerprint and bumps the version counter in
	// a single write, so in-flight tokens fail the version comparison.
	RevokeSessions(id uint) error

	// SaveAndRevokeSessions persists acc (new password hash, cleared OTP or
	// session fields) and bumps the version counter in one transaction.
	SaveAndRevokeSessions(acc *domain.Account) error

	FindProfile(accountID uint) (*domain.Profile, error)
	SaveProfile(profile *domain.Profile) error

	List(offset, limit int) ([]domain.Account, int64, error)

	// Delete removes the account and its dependent posts and profile. Audit
	// rows are kept.
	Delete(id uint) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(acc *domain.Account) (*domain.Account, error) {
	if acc == nil {
		return nil, errors.New("nil account")
	}

	if err := r.db.Create(acc).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.KindConflict, "email already registered", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create account", err)
	}
	return acc, nil
}

func (r *accountRepository) Save(acc *domain.Account) error {
	if acc == nil {
		return errors.New("nil account")
	}

	if err := r.db.Save(acc).Error; err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to save account", err)
	}
	return nil
}

func (r *accountRepository) FindByEmail(email string) (*domain.Account, error) {
	acc := &domain.Account{}
	if err := r.db.First(acc, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrAccountNotFound
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to find account by email", err)
	}
	return acc, nil
}

func (r *accountRepository) FindByID(id uint) (*domain.Account, error) {
	acc := &domain.Account{}
	if err := r.db.First(acc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrAccountNotFound
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to find account by id", err)
	}
	return acc, nil
}

func (r *accountRepository) VerifyAccount(acc *domain.Account, profile *domain.Profile) error {
	if acc == nil || profile == nil {
		return errors.New("nil account or profile")
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(acc).Error; err != nil {
			return err
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to verify account", err)
	}
	return nil
}

func (r *accountRepository) SaveRefreshSession(id uint, fingerprint *string) error {
	err := r.db.Model(&domain.Account{}).
		Where("id = ?", id).
		UpdateColumn("refresh_token_hash", fingerprint).Error
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to save refresh session", err)
	}
	return nil
}

func (r *accountRepository) RevokeSessions(id uint) error {
	err := r.db.Model(&domain.Account{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"refresh_token_hash": nil,
			"session_version":    gorm.Expr("session_version + 1"),
		}).Error
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to revoke sessions", err)
	}
	return nil
}

func (r *accountRepository) SaveAndRevokeSessions(acc *domain.Account) error {
	if acc == nil {
		return errors.New("nil account")
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(acc).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Account{}).
			Where("id = ?", acc.ID).
			UpdateColumns(map[string]interface{}{
				"refresh_token_hash": nil,
				"session_version":    gorm.Expr("session_version + 1"),
			}).Error
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to save account", err)
	}
	return nil
}

func (r *accountRepository) FindProfile(accountID uint) (*domain.Profile, error) {
	profile := &domain.Profile{}
	if err := r.db.First(profile, "account_id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("profile not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to find profile", err)
	}
	return profile, nil
}

func (r *accountRepository) SaveProfile(profile *domain.Profile) error {
	if profile == nil {
		return errors.New("nil profile")
	}

	if err := r.db.Save(profile).Error; err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to save profile", err)
	}
	return nil
}

func (r *accountRepository) List(offset, limit int) ([]domain.Account, int64, error) {
	var total int64
	if err := r.db.Model(&domain.Account{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to count accounts", err)
	}

	var accounts []domain.Account
	err := r.db.Order("id").Offset(offset).Limit(limit).Find(&accounts).Error
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list accounts", err)
	}
	return accounts, total, nil
}

func (r *accountRepository) Delete(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("author_id = ?", id).Delete(&domain.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("account_id = ?", id).Delete(&domain.Profile{}).Error; err != nil {
			return err
		}
		// hard delete so the email can register again
		return tx.Unscoped().Delete(&domain.Account{}, id).Error
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete account", err)
	}
	return nil
}
