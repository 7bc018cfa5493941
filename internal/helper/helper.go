package helper

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// NormalizeEmail lowercases and trims; the account unique index is on this form.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint error
// (SQLSTATE 23505), e.g. two registrations racing on the same email.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
