package repository

import (
	"context"

	"companion-api/internal/domain"
)

type SessionHistoryRepository interface {
	Create(ctx context.Context, entry domain.SessionHistoryEntry) error
	ListRecentCompanions(ctx context.Context, limit int) ([]domain.Companion, error)
	ListRecentCompanionsByUser(ctx context.Context, userID string, limit int) ([]domain.Companion, error)
}

type PgSessionHistoryRepository struct {
	db Querier
}

func NewPgSessionHistoryRepository(db Querier) *PgSessionHistoryRepository {
	return &PgSessionHistoryRepository{db: db}
}

func (r *PgSessionHistoryRepository) Create(ctx context.Context, entry domain.SessionHistoryEntry) error {
	const query = `
		INSERT INTO session_history (id, companion_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	var userID interface{}
	if entry.UserID != "" {
		userID = entry.UserID
	}

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.CompanionID,
		userID,
		entry.CreatedAt,
	)
	return err
}

// ListRecentCompanions devuelve el companion de cada una de las ultimas entradas, sin filtrar por usuario.
// Puede contener repetidos; la deduplicacion es responsabilidad del llamador.
func (r *PgSessionHistoryRepository) ListRecentCompanions(ctx context.Context, limit int) ([]domain.Companion, error) {
	const query = `
		SELECT ` + companionColumns + `
		FROM session_history sh
		JOIN companions c ON c.id = sh.companion_id
		ORDER BY sh.created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return scanCompanions(rows)
}

func (r *PgSessionHistoryRepository) ListRecentCompanionsByUser(ctx context.Context, userID string, limit int) ([]domain.Companion, error) {
	const query = `
		SELECT ` + companionColumns + `
		FROM session_history sh
		JOIN companions c ON c.id = sh.companion_id
		WHERE sh.user_id = $1
		ORDER BY sh.created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	return scanCompanions(rows)
}
