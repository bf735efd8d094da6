// Package refresh mantiene listados del lado cliente que se vuelven a pedir al montarse,
// al recuperar visibilidad o al registrarse una sesion nueva.
package refresh

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"companion-api/internal/events"
)

const (
	HomePath    = "/"
	JourneyPath = "/my-journey"
)

type State int

const (
	Idle State = iota
	Loading
)

func (s State) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

// Options fija el proposito de un listado.
type Options struct {
	Name         string
	ExpectedPath string
	// RequireUser hace que el listado no pida nada mientras no haya userID.
	RequireUser bool
	// TracksSessions hace que el listado reaccione a events.SessionRecorded.
	TracksSessions bool
}

// List guarda la ultima respuesta buena de fetch. Solo se aplica la respuesta del ultimo
// pedido iniciado; las que llegan tarde se descartan.
type List[T any] struct {
	opts   Options
	fetch  func(ctx context.Context) ([]T, error)
	logger *zap.Logger

	mu             sync.Mutex
	path           string
	userID         string
	items          []T
	state          State
	seq            uint64
	sessionPending bool
	onChange       func()
}

func New[T any](logger *zap.Logger, opts Options, userID string, fetch func(ctx context.Context) ([]T, error)) *List[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.ExpectedPath = normalize(opts.ExpectedPath)
	return &List[T]{
		opts:   opts,
		fetch:  fetch,
		logger: logger.With(zap.String("list", opts.Name)),
		userID: strings.TrimSpace(userID),
	}
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if trimmed := strings.TrimRight(path, "/"); trimmed != "" {
		return trimmed
	}
	return "/"
}

// OnChange registra fn para cada cambio de estado o de datos. fn corre sin el lock tomado.
func (l *List[T]) OnChange(fn func()) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Navigate cambia la ruta actual sin disparar un pedido.
func (l *List[T]) Navigate(path string) {
	l.mu.Lock()
	l.path = normalize(path)
	l.mu.Unlock()
}

// Mount fija la ruta actual y refresca si corresponde.
func (l *List[T]) Mount(ctx context.Context, path string) bool {
	l.Navigate(path)
	return l.Refresh(ctx)
}

// VisibilityChanged refresca solo cuando la vista vuelve a estar visible.
func (l *List[T]) VisibilityChanged(ctx context.Context, visible bool) bool {
	if !visible {
		return false
	}
	return l.Refresh(ctx)
}

// HandleEvent marca la sesion pendiente y refresca. La marca se consume con el siguiente
// refresh exitoso, aunque este ocurra mas tarde por estar en otra ruta.
func (l *List[T]) HandleEvent(ctx context.Context, ev events.Event) bool {
	if ev.Kind != events.SessionRecorded || !l.opts.TracksSessions {
		return false
	}
	l.mu.Lock()
	l.sessionPending = true
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// Attach suscribe el listado al bus. Los eventos se atienden en la goroutine de Publish.
func (l *List[T]) Attach(ctx context.Context, bus *events.Bus) (detach func()) {
	return bus.Subscribe(func(ev events.Event) {
		l.HandleEvent(ctx, ev)
	})
}

func (l *List[T]) shouldRefresh() bool {
	if l.fetch == nil || l.path == "" || l.path != l.opts.ExpectedPath {
		return false
	}
	return !l.opts.RequireUser || l.userID != ""
}

// Refresh pide el listado si la ruta actual coincide con la esperada. Devuelve false si el
// guard lo impidio; en ese caso no hay pedido ni cambio de estado.
func (l *List[T]) Refresh(ctx context.Context) bool {
	l.mu.Lock()
	if !l.shouldRefresh() {
		l.mu.Unlock()
		return false
	}
	l.seq++
	seq := l.seq
	l.state = Loading
	notify := l.onChange
	l.mu.Unlock()
	if notify != nil {
		notify()
	}

	items, err := l.fetch(ctx)

	l.mu.Lock()
	if seq != l.seq {
		l.mu.Unlock()
		l.logger.Debug("discarding superseded response", zap.Uint64("seq", seq))
		return true
	}
	l.state = Idle
	if err != nil {
		l.logger.Warn("refresh failed", zap.String("path", l.path), zap.Error(err))
	} else {
		l.items = items
		l.sessionPending = false
	}
	notify = l.onChange
	l.mu.Unlock()
	if notify != nil {
		notify()
	}
	return true
}

// Items devuelve una copia de los datos actuales.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...)
}

func (l *List[T]) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *List[T]) SessionPending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionPending
}

func (l *List[T]) Name() string {
	return l.opts.Name
}
