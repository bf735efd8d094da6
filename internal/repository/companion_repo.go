package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"companion-api/internal/domain"
)

type CompanionRepository interface {
	Create(ctx context.Context, companion domain.Companion) (domain.Companion, error)
	GetByID(ctx context.Context, id string) (domain.Companion, error)
	List(ctx context.Context, filter domain.CompanionFilter) ([]domain.Companion, error)
	ListByAuthor(ctx context.Context, author string) ([]domain.Companion, error)
	CountByAuthor(ctx context.Context, author string) (int, error)
	DeleteByAuthor(ctx context.Context, id, author string) (int64, error)
}

// PgCompanionRepository implementa CompanionRepository sobre PostgreSQL.
type PgCompanionRepository struct {
	db Querier
}

func NewPgCompanionRepository(db Querier) *PgCompanionRepository {
	return &PgCompanionRepository{db: db}
}

func (r *PgCompanionRepository) Create(ctx context.Context, companion domain.Companion) (domain.Companion, error) {
	const query = `
		INSERT INTO companions AS c (id, author, name, subject, topic, voice, style, duration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + companionColumns

	row := r.db.QueryRow(ctx, query,
		companion.ID,
		companion.Author,
		companion.Name,
		companion.Subject,
		companion.Topic,
		companion.Voice,
		companion.Style,
		companion.Duration,
		companion.CreatedAt,
	)
	return scanCompanion(row)
}

func (r *PgCompanionRepository) GetByID(ctx context.Context, id string) (domain.Companion, error) {
	const query = `
		SELECT ` + companionColumns + `
		FROM companions c
		WHERE c.id = $1
	`
	c, err := scanCompanion(r.db.QueryRow(ctx, query, id))
	if isMalformedID(err) {
		return domain.Companion{}, pgx.ErrNoRows
	}
	if err != nil {
		return domain.Companion{}, err
	}
	return c, nil
}

// List aplica los filtros de subject y topic como subcadenas sin distinguir mayusculas sobre
// topic o name. Todos los predicados se combinan con OR.
func (r *PgCompanionRepository) List(ctx context.Context, filter domain.CompanionFilter) ([]domain.Companion, error) {
	var (
		sb    strings.Builder
		conds []string
		args  []any
	)
	sb.WriteString(`SELECT ` + companionColumns + ` FROM companions c`)

	for _, term := range []string{filter.Subject, filter.Topic} {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		args = append(args, containsPattern(term))
		n := len(args)
		conds = append(conds, fmt.Sprintf("c.topic ILIKE $%d OR c.name ILIKE $%d", n, n))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " OR "))
	}

	args = append(args, filter.Limit, filter.Offset())
	fmt.Fprintf(&sb, " ORDER BY c.created_at DESC, c.id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	return scanCompanions(rows)
}

func (r *PgCompanionRepository) ListByAuthor(ctx context.Context, author string) ([]domain.Companion, error) {
	const query = `
		SELECT ` + companionColumns + `
		FROM companions c
		WHERE c.author = $1
		ORDER BY c.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, author)
	if err != nil {
		return nil, err
	}
	return scanCompanions(rows)
}

func (r *PgCompanionRepository) CountByAuthor(ctx context.Context, author string) (int, error) {
	const query = `SELECT COUNT(*) FROM companions WHERE author = $1`
	var count int
	if err := r.db.QueryRow(ctx, query, author).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteByAuthor borra solo si el autor coincide; para cualquier otro usuario afecta cero filas.
func (r *PgCompanionRepository) DeleteByAuthor(ctx context.Context, id, author string) (int64, error) {
	const query = `DELETE FROM companions WHERE id = $1 AND author = $2`
	tag, err := r.db.Exec(ctx, query, id, author)
	if isMalformedID(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
