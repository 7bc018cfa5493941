package services

import (
	"context"

	"github.com/trailpost/trailpost/internal/domain"
	"github.com/trailpost/trailpost/internal/logging"
	"github.com/trailpost/trailpost/internal/repository"
)

const (
	entityAccount = "account"
	entityPost    = "post"
)

// AuditRecorder appends to the audit trail. Writes are best-effort: a failed
// append is logged and never rolls back the mutation it describes.
type AuditRecorder struct {
	repo repository.AuditRepository
	log  logging.Logger
}

func NewAuditRecorder(repo repository.AuditRepository, log logging.Logger) *AuditRecorder {
	return &AuditRecorder{repo: repo, log: log}
}

func (a *AuditRecorder) Record(action, entity string, entityID uint, note string) {
	if a == nil || a.repo == nil {
		return
	}

	entry := &domain.AuditLog{
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
	}
	if note != "" {
		entry.Note = &note
	}

	if err := a.repo.Append(entry); err != nil {
		a.log.Warn(context.Background(), "audit append failed",
			"action", action, "entity", entity, "entity_id", entityID, "err", err)
	}
}
