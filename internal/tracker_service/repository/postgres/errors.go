package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// constraintError maps a Postgres constraint violation onto the domain
// sentinel carried by that constraint. Returns nil when err is not a
// recognized violation.
func constraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		switch pgErr.ConstraintName {
		case "phones_normalized_number_key":
			return domain.ErrDuplicatePhone
		case "usage_phone_id_service_id_key":
			return domain.ErrDuplicateUsage
		}
	case pgForeignKeyViolation:
		switch pgErr.ConstraintName {
		case "phones_operator_id_fkey":
			return domain.ErrUnknownOperator
		case "usage_phone_id_fkey":
			return domain.ErrUnknownPhone
		case "usage_service_id_fkey":
			return domain.ErrUnknownService
		}
	}
	return nil
}

// storageError wraps an unexpected database failure so callers can match it
// with errors.Is(err, domain.ErrStorage).
func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorage, op, err)
}
