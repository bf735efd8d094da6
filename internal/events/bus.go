// Package events es un bus de eventos en proceso. Sustituye a las banderas ad hoc que los
// listados usaban para enterarse de que el historial de sesiones habia cambiado.
package events

import (
	"sync"
	"time"
)

type Kind string

const (
	// SessionRecorded se emite cada vez que se agrega una entrada al historial de sesiones.
	SessionRecorded Kind = "session_recorded"
	// PathStale pide recalcular la vista cacheada de una ruta.
	PathStale Kind = "path_stale"
)

type Event struct {
	Kind        Kind      `json:"kind"`
	UserID      string    `json:"user_id,omitempty"`
	CompanionID string    `json:"companion_id,omitempty"`
	Path        string    `json:"path,omitempty"`
	At          time.Time `json:"at"`
}

// Publisher es lo que necesitan los productores de eventos.
type Publisher interface {
	Publish(ev Event)
}

// Bus reparte cada evento a todos los suscriptores de forma sincrona, en orden de suscripcion.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	order  []int
	subs   map[int]func(Event)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registra fn y devuelve la funcion para darse de baja.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}
