package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

type PgServiceRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgServiceRepository(db *pgxpool.Pool, logger *slog.Logger) *PgServiceRepository {
	return &PgServiceRepository{db: db, logger: logger}
}

func (r *PgServiceRepository) Create(ctx context.Context, s *domain.Service) error {
	query := `
		INSERT INTO services (id, name, logo_base64, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, s.ID, s.Name, s.LogoBase64, s.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating service", "error", err, "service_id", s.ID)
		return storageError("create service", err)
	}
	return nil
}

func (r *PgServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	query := `
		SELECT id, name, logo_base64, created_at
		FROM services
		WHERE id = $1
	`
	s := &domain.Service{}
	err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.LogoBase64, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting service by ID", "error", err, "service_id", id)
		return nil, storageError("get service", err)
	}
	return s, nil
}

// GetByName returns the oldest live service with this exact name. Names are
// not unique; merge resolution needs one deterministic target.
func (r *PgServiceRepository) GetByName(ctx context.Context, name string) (*domain.Service, error) {
	query := `
		SELECT id, name, logo_base64, created_at
		FROM services
		WHERE name = $1
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`
	s := &domain.Service{}
	err := r.db.QueryRow(ctx, query, name).Scan(&s.ID, &s.Name, &s.LogoBase64, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting service by name", "error", err, "name", name)
		return nil, storageError("get service by name", err)
	}
	return s, nil
}

func (r *PgServiceRepository) List(ctx context.Context) ([]*domain.Service, error) {
	query := `
		SELECT id, name, logo_base64, created_at
		FROM services
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing services", "error", err)
		return nil, storageError("list services", err)
	}
	defer rows.Close()
	return scanServices(rows)
}

func (r *PgServiceRepository) Update(ctx context.Context, s *domain.Service) error {
	query := `
		UPDATE services
		SET name = $1, logo_base64 = $2
		WHERE id = $3
	`
	tag, err := r.db.Exec(ctx, query, s.Name, s.LogoBase64, s.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating service", "error", err, "service_id", s.ID)
		return storageError("update service", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the service; the schema cascades deletion of its usage rows.
func (r *PgServiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM services WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error deleting service", "error", err, "service_id", id)
		return storageError("delete service", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SearchByName matches the query as a case-insensitive literal substring of
// the service name. position() over lowered text keeps the comparison
// literal; no pattern metacharacters apply.
func (r *PgServiceRepository) SearchByName(ctx context.Context, query string, limit int) ([]*domain.Service, error) {
	sql := `
		SELECT id, name, logo_base64, created_at
		FROM services
		WHERE position($1 in lower(name)) > 0
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, sql, strings.ToLower(query), limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error searching services", "error", err)
		return nil, storageError("search services", err)
	}
	defer rows.Close()
	return scanServices(rows)
}

func scanServices(rows pgx.Rows) ([]*domain.Service, error) {
	var services []*domain.Service
	for rows.Next() {
		s := &domain.Service{}
		if err := rows.Scan(&s.ID, &s.Name, &s.LogoBase64, &s.CreatedAt); err != nil {
			return nil, storageError("scan service row", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate service rows", err)
	}
	return services, nil
}
