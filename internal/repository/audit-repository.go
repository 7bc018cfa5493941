package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/trailpost/trailpost/internal/domain"
)

type AuditRepository interface {
	Append(entry *domain.AuditLog) error
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(entry *domain.AuditLog) error {
	if entry == nil {
		return errors.New("nil audit entry")
	}
	return r.db.Create(entry).Error
}
