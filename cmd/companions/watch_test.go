package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"companion-api/internal/domain"
)

type fakeWatchAPI struct {
	mu       sync.Mutex
	calls    map[string]int
	version  int64
	sessions []domain.SessionHistoryEntry
}

func newFakeWatchAPI() *fakeWatchAPI {
	return &fakeWatchAPI{calls: make(map[string]int)}
}

func (f *fakeWatchAPI) inc(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeWatchAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeWatchAPI) RecentSessions(context.Context, int) ([]domain.Companion, error) {
	f.inc("recent")
	return []domain.Companion{{ID: "c1", Name: "Carl"}}, nil
}

func (f *fakeWatchAPI) UserSessions(context.Context, string, int) ([]domain.Companion, error) {
	f.inc("user_sessions")
	return []domain.Companion{{ID: "c1", Name: "Carl"}}, nil
}

func (f *fakeWatchAPI) UserCompanions(context.Context, string) ([]domain.Companion, error) {
	f.inc("user_companions")
	return []domain.Companion{{ID: "c2", Name: "Hedy", IsAuthor: true}}, nil
}

func (f *fakeWatchAPI) GetCompanion(_ context.Context, id string) (domain.Companion, error) {
	f.inc("get")
	return domain.Companion{ID: id, Name: "Carl"}, nil
}

func (f *fakeWatchAPI) StartSession(_ context.Context, id string) (domain.SessionHistoryEntry, error) {
	f.inc("start")
	entry := domain.SessionHistoryEntry{ID: "s1", CompanionID: id, CreatedAt: time.Now().UTC()}
	f.sessions = append(f.sessions, entry)
	return entry, nil
}

func (f *fakeWatchAPI) RenderVersion(context.Context, string) (int64, error) {
	f.inc("version")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version, nil
}

func TestWatcher_OnlyMatchingListsFetch(t *testing.T) {
	api := newFakeWatchAPI()
	var out bytes.Buffer
	w := newWatcher(nil, api, "u1", &out)
	ctx := context.Background()

	w.handle(ctx, "home")
	if api.count("recent") != 1 || api.count("user_sessions") != 0 || api.count("user_companions") != 0 {
		t.Fatalf("unexpected fetches on home: %v", api.calls)
	}
	if !strings.Contains(out.String(), "Recently completed sessions") {
		t.Fatalf("expected home view, got:\n%s", out.String())
	}

	w.handle(ctx, "show c1")
	if api.count("recent") != 1 || api.count("user_sessions") != 0 {
		t.Fatalf("detail page must not fetch lists: %v", api.calls)
	}

	w.handle(ctx, "journey")
	if api.count("user_sessions") != 1 || api.count("user_companions") != 1 || api.count("recent") != 1 {
		t.Fatalf("unexpected fetches on journey: %v", api.calls)
	}
}

func TestWatcher_SessionRecordedRefreshesLater(t *testing.T) {
	api := newFakeWatchAPI()
	var out bytes.Buffer
	w := newWatcher(nil, api, "u1", &out)
	ctx := context.Background()
	for _, l := range w.lists {
		defer l.Attach(ctx, w.bus)()
	}

	w.handle(ctx, "show c1")
	w.handle(ctx, "start c1")
	if api.count("start") != 1 {
		t.Fatalf("expected session to be recorded")
	}
	if !w.sessions.SessionPending() || !w.home.SessionPending() {
		t.Fatalf("session lists should be pending while away")
	}
	if w.mine.SessionPending() {
		t.Fatalf("companions list does not track sessions")
	}

	w.handle(ctx, "journey")
	if w.sessions.SessionPending() {
		t.Fatalf("journey refresh should consume the pending flag")
	}
	if !w.home.SessionPending() {
		t.Fatalf("home is still pending until visited")
	}
}

func TestWatcher_PollRefreshesOnVersionChange(t *testing.T) {
	api := newFakeWatchAPI()
	var out bytes.Buffer
	w := newWatcher(nil, api, "", &out)
	ctx := context.Background()

	w.handle(ctx, "home")
	w.poll(ctx)
	if api.count("recent") != 1 {
		t.Fatalf("first poll only records the version, got %d fetches", api.count("recent"))
	}

	api.mu.Lock()
	api.version = 1
	api.mu.Unlock()
	w.poll(ctx)
	if api.count("recent") != 2 {
		t.Fatalf("expected refresh after version change, got %d", api.count("recent"))
	}

	w.poll(ctx)
	if api.count("recent") != 2 {
		t.Fatalf("unchanged version must not refresh")
	}
}

func TestWatcher_RunQuits(t *testing.T) {
	api := newFakeWatchAPI()
	var out bytes.Buffer
	w := newWatcher(nil, api, "", &out)

	err := w.run(context.Background(), strings.NewReader("journey\nbogus\nquit\n"), 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "journey needs a token") {
		t.Fatalf("expected anonymous journey message:\n%s", out.String())
	}
	if api.count("user_sessions") != 0 {
		t.Fatalf("anonymous journey must not fetch")
	}
}
