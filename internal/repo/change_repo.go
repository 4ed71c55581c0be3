package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ebstat/sdkmendixtest/internal/domain"
)

// ChangeRepo — репозиторий журнала изменений модели.
type ChangeRepo struct {
	pool *pgxpool.Pool
}

// NewChangeRepo создаёт новый ChangeRepo.
func NewChangeRepo(pool *pgxpool.Pool) *ChangeRepo {
	return &ChangeRepo{pool: pool}
}

// Insert сохраняет событие. Повторная доставка того же события
// ничего не меняет и возвращает false.
func (r *ChangeRepo) Insert(ctx context.Context, e domain.ChangeEvent) (bool, error) {
	query := `
		INSERT INTO model_changes (id, session_id, app_id, branch, revision, op, kind,
		                           module, name, unit_id, committed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	result, err := r.pool.Exec(ctx, query,
		e.ID,
		e.SessionID,
		e.AppID,
		e.Branch,
		e.Revision,
		e.Op,
		e.Kind,
		e.Module,
		e.Name,
		e.UnitID,
		e.CommittedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert model change: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ListByApp возвращает изменения приложения, новые первыми.
func (r *ChangeRepo) ListByApp(ctx context.Context, appID string, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, session_id, app_id, branch, revision, op, kind, module, name, unit_id, committed_at
		FROM model_changes
		WHERE app_id = $1
		ORDER BY committed_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, appID, limit)
	if err != nil {
		return nil, fmt.Errorf("list model changes: %w", err)
	}
	defer rows.Close()

	var events []domain.ChangeEvent
	for rows.Next() {
		var e domain.ChangeEvent
		if err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&e.AppID,
			&e.Branch,
			&e.Revision,
			&e.Op,
			&e.Kind,
			&e.Module,
			&e.Name,
			&e.UnitID,
			&e.CommittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan model change: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
