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

type PgPhoneRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgPhoneRepository(db *pgxpool.Pool, logger *slog.Logger) *PgPhoneRepository {
	return &PgPhoneRepository{db: db, logger: logger}
}

// Create inserts the phone. Uniqueness of the normalized number and
// existence of the operator are enforced by the schema, so two concurrent
// creators of the same number get exactly one success.
func (r *PgPhoneRepository) Create(ctx context.Context, p *domain.Phone) error {
	query := `
		INSERT INTO phones (id, number, normalized_number, operator_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, p.ID, p.Number, p.NormalizedNumber, p.OperatorID, p.CreatedAt)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			r.logger.WarnContext(ctx, "Phone create rejected by constraint", "error", mapped, "normalized_number", p.NormalizedNumber)
			return mapped
		}
		r.logger.ErrorContext(ctx, "Error creating phone", "error", err, "phone_id", p.ID)
		return storageError("create phone", err)
	}
	return nil
}

func (r *PgPhoneRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Phone, error) {
	query := `
		SELECT id, number, normalized_number, operator_id, created_at
		FROM phones
		WHERE id = $1
	`
	p := &domain.Phone{}
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Number, &p.NormalizedNumber, &p.OperatorID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting phone by ID", "error", err, "phone_id", id)
		return nil, storageError("get phone", err)
	}
	return p, nil
}

func (r *PgPhoneRepository) GetByNormalizedNumber(ctx context.Context, normalized string) (*domain.Phone, error) {
	query := `
		SELECT id, number, normalized_number, operator_id, created_at
		FROM phones
		WHERE normalized_number = $1
	`
	p := &domain.Phone{}
	err := r.db.QueryRow(ctx, query, normalized).Scan(&p.ID, &p.Number, &p.NormalizedNumber, &p.OperatorID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting phone by normalized number", "error", err)
		return nil, storageError("get phone by normalized number", err)
	}
	return p, nil
}

func (r *PgPhoneRepository) List(ctx context.Context) ([]*domain.Phone, error) {
	query := `
		SELECT id, number, normalized_number, operator_id, created_at
		FROM phones
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing phones", "error", err)
		return nil, storageError("list phones", err)
	}
	defer rows.Close()
	return scanPhones(rows)
}

func (r *PgPhoneRepository) Update(ctx context.Context, p *domain.Phone) error {
	query := `
		UPDATE phones
		SET number = $1, normalized_number = $2, operator_id = $3
		WHERE id = $4
	`
	tag, err := r.db.Exec(ctx, query, p.Number, p.NormalizedNumber, p.OperatorID, p.ID)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			r.logger.WarnContext(ctx, "Phone update rejected by constraint", "error", mapped, "phone_id", p.ID)
			return mapped
		}
		r.logger.ErrorContext(ctx, "Error updating phone", "error", err, "phone_id", p.ID)
		return storageError("update phone", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the phone; the schema cascades deletion of its usage rows.
func (r *PgPhoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM phones WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error deleting phone", "error", err, "phone_id", id)
		return storageError("delete phone", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Search matches by digit projection or literal raw containment. position()
// is literal substring containment, so no query text is ever interpreted as
// a pattern. The digit pattern fed to LIKE contains digits only.
func (r *PgPhoneRepository) Search(ctx context.Context, digits, literal string, limit int) ([]*domain.Phone, error) {
	query := `
		SELECT id, number, normalized_number, operator_id, created_at
		FROM phones
		WHERE ($1 <> '' AND (
				regexp_replace(number, '\D', '', 'g') LIKE '%' || $1 || '%'
				OR regexp_replace(normalized_number, '\D', '', 'g') LIKE '%' || $1 || '%'))
			OR ($2 <> '' AND position($2 in number) > 0)
		ORDER BY created_at ASC, id ASC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, digits, literal, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error searching phones", "error", err)
		return nil, storageError("search phones", err)
	}
	defer rows.Close()
	return scanPhones(rows)
}

func scanPhones(rows pgx.Rows) ([]*domain.Phone, error) {
	var phones []*domain.Phone
	for rows.Next() {
		p := &domain.Phone{}
		if err := rows.Scan(&p.ID, &p.Number, &p.NormalizedNumber, &p.OperatorID, &p.CreatedAt); err != nil {
			return nil, storageError("scan phone row", err)
		}
		phones = append(phones, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate phone rows", err)
	}
	return phones, nil
}
