package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ebstat/sdkmendixtest/internal/domain"
)

// SessionRepo — репозиторий для журнала working copy сессий.
type SessionRepo struct {
	pool *pgxpool.Pool
}

// NewSessionRepo создаёт новый SessionRepo.
func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// SessionFilter — параметры фильтрации сессий.
type SessionFilter struct {
	AppID  string
	Status domain.SessionStatus
	Limit  int
	Offset int
}

const sessionColumns = `id, app_id, branch, working_copy_id, operation, status,
	revision, error, created_at, finished_at`

// Create сохраняет новую сессию.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (id, app_id, branch, working_copy_id, operation, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.AppID,
		s.Branch,
		s.WorkingCopyID,
		s.Operation,
		s.Status,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Finish записывает финальный статус сессии.
// Уже завершённая сессия не перезаписывается (ErrInvalidState).
func (r *SessionRepo) Finish(ctx context.Context, s *domain.Session) error {
	query := `
		UPDATE sessions
		SET status = $2, revision = $3, error = $4, finished_at = $5
		WHERE id = $1 AND status = 'OPEN'
	`
	result, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Status,
		nullString(s.Revision),
		nullString(s.Error),
		s.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, s.ID); err != nil {
			return err
		}
		return ErrInvalidState
	}
	return nil
}

// GetByID возвращает сессию по ID.
func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	s, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session by id: %w", err)
	}
	return s, nil
}

// List возвращает сессии с фильтрацией, новые первыми.
func (r *SessionRepo) List(ctx context.Context, filter SessionFilter) ([]domain.Session, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE ($1::text IS NULL OR app_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.AppID),
		nullString(string(filter.Status)),
		limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return collectSessions(rows)
}

// ListStale возвращает OPEN сессии, созданные раньше before.
func (r *SessionRepo) ListStale(ctx context.Context, before time.Time, limit int) ([]domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE status = 'OPEN' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale sessions: %w", err)
	}
	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]domain.Session, error) {
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// scanSession читает сессию из pgx.Row (pgx.Rows тоже реализует Scan).
func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	var revision, errText *string

	err := row.Scan(
		&s.ID,
		&s.AppID,
		&s.Branch,
		&s.WorkingCopyID,
		&s.Operation,
		&s.Status,
		&revision,
		&errText,
		&s.CreatedAt,
		&s.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	if revision != nil {
		s.Revision = *revision
	}
	if errText != nil {
		s.Error = *errText
	}
	return &s, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
