package repository

import (
	"context"

	"companion-api/internal/domain"
)

type BookmarkRepository interface {
	Add(ctx context.Context, bookmark domain.Bookmark) error
	Remove(ctx context.Context, companionID, userID string) error
	Exists(ctx context.Context, companionID, userID string) (bool, error)
	CompanionIDsByUser(ctx context.Context, userID string) ([]string, error)
	ListCompanionsByUser(ctx context.Context, userID string) ([]domain.Companion, error)
}

type PgBookmarkRepository struct {
	db Querier
}

func NewPgBookmarkRepository(db Querier) *PgBookmarkRepository {
	return &PgBookmarkRepository{db: db}
}

func (r *PgBookmarkRepository) Add(ctx context.Context, bookmark domain.Bookmark) error {
	const query = `
		INSERT INTO bookmarks (companion_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (companion_id, user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, bookmark.CompanionID, bookmark.UserID, bookmark.CreatedAt)
	return err
}

func (r *PgBookmarkRepository) Remove(ctx context.Context, companionID, userID string) error {
	const query = `DELETE FROM bookmarks WHERE companion_id = $1 AND user_id = $2`
	_, err := r.db.Exec(ctx, query, companionID, userID)
	return err
}

func (r *PgBookmarkRepository) Exists(ctx context.Context, companionID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM bookmarks WHERE companion_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, companionID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CompanionIDsByUser resuelve en una sola consulta el conjunto de favoritos de un usuario.
func (r *PgBookmarkRepository) CompanionIDsByUser(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT companion_id FROM bookmarks WHERE user_id = $1`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PgBookmarkRepository) ListCompanionsByUser(ctx context.Context, userID string) ([]domain.Companion, error) {
	const query = `
		SELECT ` + companionColumns + `
		FROM bookmarks b
		JOIN companions c ON c.id = b.companion_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return scanCompanions(rows)
}
