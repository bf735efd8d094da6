package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"companion-api/internal/domain"
)

func TestBookmarkRepoAdd_IsIdempotentInsert(t *testing.T) {
	mock := newMock(t)
	repo := NewPgBookmarkRepository(mock)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO bookmarks (.+) ON CONFLICT").
		WithArgs("c1", "u1", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	if err := repo.Add(context.Background(), domain.Bookmark{CompanionID: "c1", UserID: "u1", CreatedAt: now}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookmarkRepoRemove_PropagatesError(t *testing.T) {
	mock := newMock(t)
	repo := NewPgBookmarkRepository(mock)
	boom := errors.New("deadlock detected")

	mock.ExpectExec("DELETE FROM bookmarks").WithArgs("c1", "u1").WillReturnError(boom)

	if err := repo.Remove(context.Background(), "c1", "u1"); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestBookmarkRepoExists(t *testing.T) {
	mock := newMock(t)
	repo := NewPgBookmarkRepository(mock)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("c1", "u1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), "c1", "u1")
	if err != nil || !ok {
		t.Fatalf("expected true,nil; got %v,%v", ok, err)
	}
}

func TestBookmarkRepoCompanionIDsByUser(t *testing.T) {
	mock := newMock(t)
	repo := NewPgBookmarkRepository(mock)

	mock.ExpectQuery("SELECT companion_id FROM bookmarks").
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"companion_id"}).AddRow("c1").AddRow("c3"))

	ids, err := repo.CompanionIDsByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != "c1" || ids[1] != "c3" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestBookmarkRepoListCompanionsByUser(t *testing.T) {
	mock := newMock(t)
	repo := NewPgBookmarkRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM bookmarks b JOIN companions c").
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(companionCols).
			AddRow("c3", "u9", "Lingo", "language", "verbs", "", "", 5, now))

	out, err := repo.ListCompanionsByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].ID != "c3" {
		t.Fatalf("unexpected list: %+v", out)
	}
}
