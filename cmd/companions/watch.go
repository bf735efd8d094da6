package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"companion-api/internal/domain"
	"companion-api/internal/events"
	"companion-api/internal/refresh"
	"companion-api/internal/view"
)

type watchAPI interface {
	refresh.Source
	GetCompanion(ctx context.Context, id string) (domain.Companion, error)
	StartSession(ctx context.Context, companionID string) (domain.SessionHistoryEntry, error)
	RenderVersion(ctx context.Context, path string) (int64, error)
}

// watcher simula la navegacion de la app: cada vista es una ruta y los listados solo piden
// datos cuando la ruta actual es la suya.
type watcher struct {
	logger *zap.Logger
	api    watchAPI
	userID string
	bus    *events.Bus

	outMu sync.Mutex
	out   io.Writer

	mu       sync.Mutex
	path     string
	versions map[string]int64
	lists    []*refresh.List[domain.Companion]
	home     *refresh.List[domain.Companion]
	sessions *refresh.List[domain.Companion]
	mine     *refresh.List[domain.Companion]
}

func newWatcher(logger *zap.Logger, api watchAPI, userID string, out io.Writer) *watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &watcher{
		logger:   logger,
		api:      api,
		userID:   userID,
		bus:      events.NewBus(),
		out:      out,
		versions: make(map[string]int64),
	}
	w.home = refresh.NewRecentSessions(logger, api)
	w.sessions = refresh.NewUserSessions(logger, api, userID)
	w.mine = refresh.NewUserCompanions(logger, api, userID)
	w.lists = []*refresh.List[domain.Companion]{w.home, w.sessions, w.mine}
	return w
}

func (w *watcher) currentPath() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

func (w *watcher) printf(format string, args ...any) {
	w.outMu.Lock()
	defer w.outMu.Unlock()
	fmt.Fprintf(w.out, format, args...)
}

// navigate oculta la vista actual, cambia de ruta y monta todos los listados en la nueva.
func (w *watcher) navigate(ctx context.Context, path string) {
	for _, l := range w.lists {
		l.VisibilityChanged(ctx, false)
	}
	w.mu.Lock()
	w.path = path
	w.mu.Unlock()
	for _, l := range w.lists {
		l.Mount(ctx, path)
	}
	w.render()
}

// poll compara la version de staleness de la ruta actual; si cambio se comporta como si la
// vista volviera a estar visible.
func (w *watcher) poll(ctx context.Context) {
	path := w.currentPath()
	if path == "" {
		return
	}
	v, err := w.api.RenderVersion(ctx, path)
	if err != nil {
		w.logger.Warn("render version failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.mu.Lock()
	prev, seen := w.versions[path]
	w.versions[path] = v
	w.mu.Unlock()
	if !seen || prev == v {
		return
	}
	for _, l := range w.lists {
		l.VisibilityChanged(ctx, true)
	}
	w.render()
}

func (w *watcher) render() {
	switch path := w.currentPath(); path {
	case refresh.HomePath:
		w.printf("%s\n", view.List("Recently completed sessions", w.home.Items(), w.home.State() == refresh.Loading))
	case refresh.JourneyPath:
		if w.userID == "" {
			w.printf("journey needs a token\n")
			return
		}
		w.printf("%s\n", view.List("Recent sessions", w.sessions.Items(), w.sessions.State() == refresh.Loading))
		w.printf("%s\n", view.List("My companions", w.mine.Items(), w.mine.State() == refresh.Loading))
	}
}

func (w *watcher) show(ctx context.Context, id string) {
	w.navigate(ctx, "/companions/"+id)
	c, err := w.api.GetCompanion(ctx, id)
	if err != nil {
		w.printf("%s\n", view.Error(err))
		return
	}
	w.printf("%s\n", view.Detail(c))
}

func (w *watcher) start(ctx context.Context, id string) {
	entry, err := w.api.StartSession(ctx, id)
	if err != nil {
		w.printf("%s\n", view.Error(err))
		return
	}
	w.printf("session with %s recorded\n", id)
	w.bus.Publish(events.Event{
		Kind:        events.SessionRecorded,
		UserID:      w.userID,
		CompanionID: entry.CompanionID,
		At:          entry.CreatedAt,
	})
	w.render()
}

const watchHelp = `commands:
  home            go to recent sessions (/)
  journey         go to your journey (/my-journey)
  show <id>       open a companion
  start <id>      record a session with a companion
  refresh         the view becomes visible again
  quit            exit
`

// handle procesa una linea; devuelve false cuando hay que salir.
func (w *watcher) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return false
	case "home":
		w.navigate(ctx, refresh.HomePath)
	case "journey":
		w.navigate(ctx, refresh.JourneyPath)
	case "show":
		if arg == "" {
			w.printf("usage: show <id>\n")
			return true
		}
		w.show(ctx, arg)
	case "start":
		if arg == "" {
			w.printf("usage: start <id>\n")
			return true
		}
		w.start(ctx, arg)
	case "refresh":
		for _, l := range w.lists {
			l.VisibilityChanged(ctx, true)
		}
		w.render()
	default:
		w.printf("%s", watchHelp)
	}
	return true
}

func (w *watcher) run(ctx context.Context, in io.Reader, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, l := range w.lists {
		defer l.Attach(ctx, w.bus)()
	}

	if interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					w.poll(ctx)
				}
			}
		}()
	}

	w.printf("%s", watchHelp)
	w.navigate(ctx, refresh.HomePath)

	scanner := bufio.NewScanner(in)
	for {
		w.printf("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if !w.handle(ctx, scanner.Text()) {
			return nil
		}
	}
}
