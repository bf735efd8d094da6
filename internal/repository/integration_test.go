//go:build integration

package repository

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"companion-api/internal/db"
	"companion-api/internal/domain"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("companions_test"),
		postgres.WithUsername("companions"),
		postgres.WithPassword("companions"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("repository: start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("repository: connection string: %v", err)
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("repository: create pool: %v", err)
	}
	if err := db.EnsureSchema(ctx, testPool); err != nil {
		log.Fatalf("repository: ensure schema: %v", err)
	}

	code := m.Run()

	testPool.Close()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Printf("repository: terminate container: %v", err)
	}
	os.Exit(code)
}

func seedCompanion(t *testing.T, repo *PgCompanionRepository, author, name, topic string) domain.Companion {
	t.Helper()
	c, err := repo.Create(context.Background(), domain.Companion{
		ID:        uuid.NewString(),
		Author:    author,
		Name:      name,
		Subject:   "general",
		Topic:     topic,
		Duration:  10,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed companion: %v", err)
	}
	return c
}

func TestIntegration_CompanionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewPgCompanionRepository(testPool)
	author := "author-" + uuid.NewString()

	c := seedCompanion(t, repo, author, "Integration Tutor", "integration-"+author)

	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Author != author {
		t.Fatalf("expected author %q, got %q", author, got.Author)
	}

	found, err := repo.List(ctx, domain.CompanionFilter{Limit: 10, Page: 1, Subject: "INTEGRATION-" + author})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(found) != 1 || found[0].ID != c.ID {
		t.Fatalf("expected case-insensitive match on topic, got %+v", found)
	}

	n, err := repo.DeleteByAuthor(ctx, c.ID, "someone-else")
	if err != nil || n != 0 {
		t.Fatalf("expected non-author delete to affect 0 rows, got %d,%v", n, err)
	}
	n, err = repo.DeleteByAuthor(ctx, c.ID, author)
	if err != nil || n != 1 {
		t.Fatalf("expected author delete to affect 1 row, got %d,%v", n, err)
	}
}

func TestIntegration_SessionsAndBookmarks(t *testing.T) {
	ctx := context.Background()
	companions := NewPgCompanionRepository(testPool)
	sessions := NewPgSessionHistoryRepository(testPool)
	bookmarks := NewPgBookmarkRepository(testPool)
	user := "user-" + uuid.NewString()

	a := seedCompanion(t, companions, "someone", "A", "a")
	b := seedCompanion(t, companions, "someone", "B", "b")

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{a.ID, b.ID, a.ID} {
		entry := domain.SessionHistoryEntry{ID: uuid.NewString(), CompanionID: id, UserID: user, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := sessions.Create(ctx, entry); err != nil {
			t.Fatalf("session create: %v", err)
		}
	}

	recent, err := sessions.ListRecentCompanionsByUser(ctx, user, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 || recent[0].ID != a.ID || recent[1].ID != b.ID {
		t.Fatalf("unexpected recent order: %+v", recent)
	}

	bm := domain.Bookmark{CompanionID: b.ID, UserID: user, CreatedAt: time.Now().UTC()}
	if err := bookmarks.Add(ctx, bm); err != nil {
		t.Fatalf("bookmark add: %v", err)
	}
	if err := bookmarks.Add(ctx, bm); err != nil {
		t.Fatalf("second bookmark add should be a no-op: %v", err)
	}
	ok, err := bookmarks.Exists(ctx, b.ID, user)
	if err != nil || !ok {
		t.Fatalf("expected bookmark to exist, got %v,%v", ok, err)
	}
	if err := bookmarks.Remove(ctx, b.ID, user); err != nil {
		t.Fatalf("bookmark remove: %v", err)
	}
	ids, err := bookmarks.CompanionIDsByUser(ctx, user)
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected no bookmarks, got %v,%v", ids, err)
	}
}
