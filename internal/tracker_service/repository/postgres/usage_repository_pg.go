package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

type PgUsageRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgUsageRepository(db *pgxpool.Pool, logger *slog.Logger) *PgUsageRepository {
	return &PgUsageRepository{db: db, logger: logger}
}

// Create inserts the usage row. Pair uniqueness and the phone/service FKs
// are schema constraints, so concurrent markers of the same pair get exactly
// one success and one ErrDuplicateUsage.
func (r *PgUsageRepository) Create(ctx context.Context, u *domain.Usage) error {
	query := `
		INSERT INTO usage (id, phone_id, service_id, used_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, u.ID, u.PhoneID, u.ServiceID, u.UsedAt)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			r.logger.WarnContext(ctx, "Usage create rejected by constraint", "error", mapped,
				"phone_id", u.PhoneID, "service_id", u.ServiceID)
			return mapped
		}
		r.logger.ErrorContext(ctx, "Error creating usage", "error", err, "usage_id", u.ID)
		return storageError("create usage", err)
	}
	return nil
}

func (r *PgUsageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Usage, error) {
	query := `
		SELECT id, phone_id, service_id, used_at
		FROM usage
		WHERE id = $1
	`
	u := &domain.Usage{}
	err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.PhoneID, &u.ServiceID, &u.UsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting usage by ID", "error", err, "usage_id", id)
		return nil, storageError("get usage", err)
	}
	return u, nil
}

func (r *PgUsageRepository) List(ctx context.Context) ([]*domain.Usage, error) {
	return r.listWhere(ctx, "", nil)
}

func (r *PgUsageRepository) ListByPhone(ctx context.Context, phoneID uuid.UUID) ([]*domain.Usage, error) {
	return r.listWhere(ctx, "WHERE phone_id = $1", []any{phoneID})
}

func (r *PgUsageRepository) ListByService(ctx context.Context, serviceID uuid.UUID) ([]*domain.Usage, error) {
	return r.listWhere(ctx, "WHERE service_id = $1", []any{serviceID})
}

// listWhere returns rows in stable chronological order; callers wanting
// recent-first views reverse on their side.
func (r *PgUsageRepository) listWhere(ctx context.Context, where string, args []any) ([]*domain.Usage, error) {
	query := `
		SELECT id, phone_id, service_id, used_at
		FROM usage ` + where + `
		ORDER BY used_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing usage", "error", err)
		return nil, storageError("list usage", err)
	}
	defer rows.Close()

	var usages []*domain.Usage
	for rows.Next() {
		u := &domain.Usage{}
		if err := rows.Scan(&u.ID, &u.PhoneID, &u.ServiceID, &u.UsedAt); err != nil {
			return nil, storageError("scan usage row", err)
		}
		usages = append(usages, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate usage rows", err)
	}
	return usages, nil
}

func (r *PgUsageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM usage WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error deleting usage", "error", err, "usage_id", id)
		return storageError("delete usage", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PgUsageRepository) DeleteByPair(ctx context.Context, phoneID, serviceID uuid.UUID) error {
	query := `DELETE FROM usage WHERE phone_id = $1 AND service_id = $2`
	tag, err := r.db.Exec(ctx, query, phoneID, serviceID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error deleting usage by pair", "error", err,
			"phone_id", phoneID, "service_id", serviceID)
		return storageError("delete usage by pair", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
