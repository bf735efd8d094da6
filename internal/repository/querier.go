package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"companion-api/internal/domain"
)

// Querier abstrae los metodos de pgx que usan los repositorios.
// *pgxpool.Pool, pgx.Tx y pgxmock lo satisfacen.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// companionColumns se comparte entre todas las consultas que devuelven companions con alias c.
const companionColumns = `c.id, c.author, c.name, c.subject, c.topic, c.voice, c.style, c.duration, c.created_at`

// pgxRows is a minimal interface to allow scanning from pgx rows and simplify testing.
type pgxRows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
	Close()
}

type rowScanner interface {
	Scan(...interface{}) error
}

func scanCompanion(row rowScanner) (domain.Companion, error) {
	var c domain.Companion
	err := row.Scan(
		&c.ID,
		&c.Author,
		&c.Name,
		&c.Subject,
		&c.Topic,
		&c.Voice,
		&c.Style,
		&c.Duration,
		&c.CreatedAt,
	)
	return c, err
}

func scanCompanions(rows pgxRows) ([]domain.Companion, error) {
	defer rows.Close()

	companions := []domain.Companion{}
	for rows.Next() {
		c, err := scanCompanion(rows)
		if err != nil {
			return nil, err
		}
		companions = append(companions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return companions, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern arma un patron ILIKE de subcadena tratando % y _ como literales.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// invalidTextRepresentation es el codigo de Postgres para un uuid mal formado.
const invalidTextRepresentation = "22P02"

func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}
