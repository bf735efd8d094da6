package http

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"companion-api/internal/domain"
	"companion-api/internal/service"
)

type memStore struct {
	companions []domain.Companion
	sessions   []domain.SessionHistoryEntry
	bookmarks  map[string]bool
	err        error
}

func newMemStore() *memStore {
	return &memStore{bookmarks: make(map[string]bool)}
}

type mockCompanionRepo struct{ *memStore }

func (m mockCompanionRepo) Create(_ context.Context, c domain.Companion) (domain.Companion, error) {
	if m.err != nil {
		return domain.Companion{}, m.err
	}
	m.companions = append(m.companions, c)
	return c, nil
}

func (m mockCompanionRepo) GetByID(_ context.Context, id string) (domain.Companion, error) {
	if m.err != nil {
		return domain.Companion{}, m.err
	}
	for _, c := range m.companions {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Companion{}, pgx.ErrNoRows
}

func (m mockCompanionRepo) List(_ context.Context, filter domain.CompanionFilter) ([]domain.Companion, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Companion{}
	for _, c := range m.companions {
		if filter.Subject != "" && !strings.Contains(c.Subject, filter.Subject) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m mockCompanionRepo) ListByAuthor(_ context.Context, author string) ([]domain.Companion, error) {
	out := []domain.Companion{}
	for _, c := range m.companions {
		if c.Author == author {
			out = append(out, c)
		}
	}
	return out, m.err
}

func (m mockCompanionRepo) CountByAuthor(ctx context.Context, author string) (int, error) {
	list, err := m.ListByAuthor(ctx, author)
	return len(list), err
}

func (m mockCompanionRepo) DeleteByAuthor(_ context.Context, id, author string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	for i, c := range m.companions {
		if c.ID == id && c.Author == author {
			m.companions = append(m.companions[:i], m.companions[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type mockSessionRepo struct{ *memStore }

func (m mockSessionRepo) Create(_ context.Context, entry domain.SessionHistoryEntry) error {
	if m.err != nil {
		return m.err
	}
	m.sessions = append(m.sessions, entry)
	return nil
}

func (m mockSessionRepo) ListRecentCompanions(ctx context.Context, limit int) ([]domain.Companion, error) {
	return m.ListRecentCompanionsByUser(ctx, "", limit)
}

func (m mockSessionRepo) ListRecentCompanionsByUser(_ context.Context, userID string, limit int) ([]domain.Companion, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Companion{}
	for i := len(m.sessions) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.sessions[i]
		if userID != "" && e.UserID != userID {
			continue
		}
		for _, c := range m.companions {
			if c.ID == e.CompanionID {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

type mockBookmarkRepo struct{ *memStore }

func (m mockBookmarkRepo) Add(_ context.Context, b domain.Bookmark) error {
	if m.err != nil {
		return m.err
	}
	m.bookmarks[b.CompanionID+"|"+b.UserID] = true
	return nil
}

func (m mockBookmarkRepo) Remove(_ context.Context, companionID, userID string) error {
	delete(m.bookmarks, companionID+"|"+userID)
	return m.err
}

func (m mockBookmarkRepo) Exists(_ context.Context, companionID, userID string) (bool, error) {
	return m.bookmarks[companionID+"|"+userID], nil
}

func (m mockBookmarkRepo) CompanionIDsByUser(_ context.Context, userID string) ([]string, error) {
	ids := []string{}
	for key := range m.bookmarks {
		if strings.HasSuffix(key, "|"+userID) {
			ids = append(ids, strings.TrimSuffix(key, "|"+userID))
		}
	}
	return ids, nil
}

func (m mockBookmarkRepo) ListCompanionsByUser(_ context.Context, userID string) ([]domain.Companion, error) {
	out := []domain.Companion{}
	for _, c := range m.companions {
		if m.bookmarks[c.ID+"|"+userID] {
			out = append(out, c)
		}
	}
	return out, m.err
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

type testServer struct {
	router *gin.Engine
	store  *memStore
	jwt    *service.JWTService
	stale  service.StaleTracker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	stale := service.NewMemoryStaleTracker()
	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, 30*time.Minute, service.NewMemoryRefreshTokenStore())
	svc := service.NewCompanionService(zap.NewNop(),
		mockCompanionRepo{store},
		mockSessionRepo{store},
		mockBookmarkRepo{store},
		stale,
		nil,
	)

	router := NewRouter(zap.NewNop(), jwtSvc,
		NewCompanionHandler(zap.NewNop(), svc),
		NewAuthHandler(zap.NewNop(), jwtSvc),
		NewRenderHandler(zap.NewNop(), stale),
		NewHealthHandler(zap.NewNop(), mockPinger{}),
	)
	return &testServer{router: router, store: store, jwt: jwtSvc, stale: stale}
}

func (s *testServer) tokenFor(t *testing.T, viewer domain.Viewer) string {
	t.Helper()
	pair, err := s.jwt.GeneratePair(context.Background(), viewer)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	return pair.AccessToken
}
