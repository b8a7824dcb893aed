package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

type PgOperatorRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgOperatorRepository(db *pgxpool.Pool, logger *slog.Logger) *PgOperatorRepository {
	return &PgOperatorRepository{db: db, logger: logger}
}

func (r *PgOperatorRepository) Create(ctx context.Context, op *domain.Operator) error {
	query := `
		INSERT INTO operators (id, name, logo_base64, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, op.ID, op.Name, op.LogoBase64, op.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating operator", "error", err, "operator_id", op.ID)
		return storageError("create operator", err)
	}
	return nil
}

func (r *PgOperatorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error) {
	query := `
		SELECT id, name, logo_base64, created_at
		FROM operators
		WHERE id = $1
	`
	op := &domain.Operator{}
	err := r.db.QueryRow(ctx, query, id).Scan(&op.ID, &op.Name, &op.LogoBase64, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting operator by ID", "error", err, "operator_id", id)
		return nil, storageError("get operator", err)
	}
	return op, nil
}

func (r *PgOperatorRepository) GetByName(ctx context.Context, name string) (*domain.Operator, error) {
	query := `
		SELECT id, name, logo_base64, created_at
		FROM operators
		WHERE name = $1
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`
	op := &domain.Operator{}
	err := r.db.QueryRow(ctx, query, name).Scan(&op.ID, &op.Name, &op.LogoBase64, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting operator by name", "error", err, "name", name)
		return nil, storageError("get operator by name", err)
	}
	return op, nil
}

func (r *PgOperatorRepository) List(ctx context.Context) ([]*domain.Operator, error) {
	query := `
		SELECT id, name, logo_base64, created_at
		FROM operators
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing operators", "error", err)
		return nil, storageError("list operators", err)
	}
	defer rows.Close()

	var operators []*domain.Operator
	for rows.Next() {
		op := &domain.Operator{}
		if err := rows.Scan(&op.ID, &op.Name, &op.LogoBase64, &op.CreatedAt); err != nil {
			return nil, storageError("scan operator row", err)
		}
		operators = append(operators, op)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate operator rows", err)
	}
	return operators, nil
}

func (r *PgOperatorRepository) Update(ctx context.Context, op *domain.Operator) error {
	query := `
		UPDATE operators
		SET name = $1, logo_base64 = $2
		WHERE id = $3
	`
	tag, err := r.db.Exec(ctx, query, op.Name, op.LogoBase64, op.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating operator", "error", err, "operator_id", op.ID)
		return storageError("update operator", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete rejects with ErrHasDependents while phones still reference the
// operator. The FK on phones.operator_id has no cascade, so the violation
// surfaces here rather than silently tearing down phone records.
func (r *PgOperatorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM operators WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			r.logger.WarnContext(ctx, "Operator delete rejected, live phones reference it", "operator_id", id)
			return domain.ErrHasDependents
		}
		r.logger.ErrorContext(ctx, "Error deleting operator", "error", err, "operator_id", id)
		return storageError("delete operator", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
