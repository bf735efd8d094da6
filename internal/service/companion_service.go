package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"companion-api/internal/domain"
	"companion-api/internal/events"
	"companion-api/internal/repository"
)

const (
	defaultPageLimit     = 10
	defaultSessionsLimit = 10
)

// CompanionService agrupa las operaciones de companions, historial y favoritos.
// Los flags de presentacion (is_author, bookmarked) se calculan aqui en cada lectura.
type CompanionService struct {
	logger     *zap.Logger
	companions repository.CompanionRepository
	sessions   repository.SessionHistoryRepository
	bookmarks  repository.BookmarkRepository
	stale      StaleTracker
	publisher  events.Publisher
	pageLimit  int
}

func NewCompanionService(
	logger *zap.Logger,
	companions repository.CompanionRepository,
	sessions repository.SessionHistoryRepository,
	bookmarks repository.BookmarkRepository,
	stale StaleTracker,
	publisher events.Publisher,
) *CompanionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanionService{
		logger:     logger,
		companions: companions,
		sessions:   sessions,
		bookmarks:  bookmarks,
		stale:      stale,
		publisher:  publisher,
		pageLimit:  defaultPageLimit,
	}
}

// WithPageLimit cambia el tamaño de pagina usado cuando el filtro no trae limit.
func (s *CompanionService) WithPageLimit(limit int) *CompanionService {
	if limit > 0 {
		s.pageLimit = limit
	}
	return s
}

func (s *CompanionService) configured() bool {
	return s != nil && s.companions != nil && s.sessions != nil && s.bookmarks != nil
}

type CreateCompanionInput struct {
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	Topic    string `json:"topic"`
	Voice    string `json:"voice"`
	Style    string `json:"style"`
	Duration int    `json:"duration"`
}

// CreateCompanion inserta un companion cuyo autor es el usuario actual.
func (s *CompanionService) CreateCompanion(ctx context.Context, viewer domain.Viewer, input CreateCompanionInput) (domain.Companion, error) {
	if !s.configured() {
		return domain.Companion{}, ErrCompanionServiceNotConfigured
	}
	if !viewer.Authenticated() {
		return domain.Companion{}, ErrUnauthenticated
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || input.Duration < 0 {
		return domain.Companion{}, ErrInvalidInput
	}

	companion := domain.Companion{
		ID:        uuid.NewString(),
		Author:    viewer.UserID,
		Name:      name,
		Subject:   strings.TrimSpace(input.Subject),
		Topic:     strings.TrimSpace(input.Topic),
		Voice:     strings.TrimSpace(input.Voice),
		Style:     strings.TrimSpace(input.Style),
		Duration:  input.Duration,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.companions.Create(ctx, companion)
	if err != nil {
		return domain.Companion{}, writeErr("create companion", err)
	}
	if created.ID == "" {
		return domain.Companion{}, writeErr("create companion", errors.New("insert returned no row"))
	}
	created.IsAuthor = true
	return created, nil
}

// ListCompanions devuelve una pagina del listado general con flags de autoria y favorito.
// Para anonimos no se consulta la tabla de favoritos.
func (s *CompanionService) ListCompanions(ctx context.Context, viewer domain.Viewer, filter domain.CompanionFilter) ([]domain.Companion, error) {
	if !s.configured() {
		return nil, ErrCompanionServiceNotConfigured
	}
	if filter.Limit <= 0 {
		filter.Limit = s.pageLimit
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	list, err := s.companions.List(ctx, filter)
	if err != nil {
		return nil, writeErr("list companions", err)
	}

	bookmarked := s.bookmarkSet(ctx, viewer.UserID)
	for i := range list {
		list[i].IsAuthor = viewer.Authenticated() && list[i].Author == viewer.UserID
		_, list[i].Bookmarked = bookmarked[list[i].ID]
	}
	return list, nil
}

// GetCompanion distingue ErrCompanionNotFound de un *ReadError del store.
func (s *CompanionService) GetCompanion(ctx context.Context, viewer domain.Viewer, id string) (domain.Companion, error) {
	if !s.configured() {
		return domain.Companion{}, ErrCompanionServiceNotConfigured
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Companion{}, ErrInvalidInput
	}

	companion, err := s.companions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Companion{}, ErrCompanionNotFound
		}
		s.logger.Error("get companion failed", zap.String("companion_id", id), zap.Error(err))
		return domain.Companion{}, &ReadError{Op: "get companion", Err: err}
	}

	if viewer.Authenticated() {
		companion.IsAuthor = companion.Author == viewer.UserID
		exists, err := s.bookmarks.Exists(ctx, id, viewer.UserID)
		if err != nil {
			s.logger.Warn("bookmark lookup failed", zap.String("companion_id", id), zap.Error(err))
		}
		companion.Bookmarked = exists
	}
	return companion, nil
}

// DeleteCompanion borra solo companions del usuario actual. Para otro usuario afecta
// cero filas y no devuelve error.
func (s *CompanionService) DeleteCompanion(ctx context.Context, viewer domain.Viewer, id string) (int64, error) {
	if !s.configured() {
		return 0, ErrCompanionServiceNotConfigured
	}
	if !viewer.Authenticated() {
		return 0, nil
	}
	n, err := s.companions.DeleteByAuthor(ctx, strings.TrimSpace(id), viewer.UserID)
	if err != nil {
		return 0, writeErr("delete companion", err)
	}
	return n, nil
}

// AddToSessionHistory registra una sesion; el usuario queda vacio si es anonimo.
func (s *CompanionService) AddToSessionHistory(ctx context.Context, viewer domain.Viewer, companionID string) (domain.SessionHistoryEntry, error) {
	if !s.configured() {
		return domain.SessionHistoryEntry{}, ErrCompanionServiceNotConfigured
	}
	companionID = strings.TrimSpace(companionID)
	if companionID == "" {
		return domain.SessionHistoryEntry{}, ErrInvalidInput
	}

	entry := domain.SessionHistoryEntry{
		ID:          uuid.NewString(),
		CompanionID: companionID,
		UserID:      viewer.UserID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, entry); err != nil {
		return domain.SessionHistoryEntry{}, writeErr("add session history", err)
	}

	s.publish(events.Event{
		Kind:        events.SessionRecorded,
		UserID:      entry.UserID,
		CompanionID: entry.CompanionID,
		At:          entry.CreatedAt,
	})
	return entry, nil
}

// GetRecentSessions devuelve los companions de las ultimas sesiones, del usuario actual si
// esta autenticado o de todos si no.
func (s *CompanionService) GetRecentSessions(ctx context.Context, viewer domain.Viewer, limit int) ([]domain.Companion, error) {
	if !s.configured() {
		return nil, ErrCompanionServiceNotConfigured
	}
	if limit <= 0 {
		limit = defaultSessionsLimit
	}

	var (
		list []domain.Companion
		err  error
	)
	if viewer.Authenticated() {
		list, err = s.sessions.ListRecentCompanionsByUser(ctx, viewer.UserID, limit)
	} else {
		list, err = s.sessions.ListRecentCompanions(ctx, limit)
	}
	if err != nil {
		return nil, writeErr("list recent sessions", err)
	}

	return s.withBookmarks(ctx, viewer.UserID, dedupeByID(list)), nil
}

// GetUserSessions filtra siempre por userID; no verifica que coincida con quien llama.
func (s *CompanionService) GetUserSessions(ctx context.Context, userID string, limit int) ([]domain.Companion, error) {
	if !s.configured() {
		return nil, ErrCompanionServiceNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultSessionsLimit
	}

	list, err := s.sessions.ListRecentCompanionsByUser(ctx, userID, limit)
	if err != nil {
		return nil, writeErr("list user sessions", err)
	}
	return s.withBookmarks(ctx, userID, dedupeByID(list)), nil
}

// GetUserCompanions lista los companions de userID con favoritos calculados para ese mismo userID.
func (s *CompanionService) GetUserCompanions(ctx context.Context, userID string) ([]domain.Companion, error) {
	if !s.configured() {
		return nil, ErrCompanionServiceNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}

	list, err := s.companions.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, writeErr("list user companions", err)
	}
	return s.withBookmarks(ctx, userID, list), nil
}

// NewCompanionPermissions indica si el usuario actual puede crear otro companion.
func (s *CompanionService) NewCompanionPermissions(ctx context.Context, viewer domain.Viewer) (bool, error) {
	if !s.configured() {
		return false, ErrCompanionServiceNotConfigured
	}
	limit := ResolveLimit(viewer.Entitlements)
	if limit.Unlimited {
		return true, nil
	}
	if !viewer.Authenticated() {
		return false, nil
	}

	count, err := s.companions.CountByAuthor(ctx, viewer.UserID)
	if err != nil {
		return false, writeErr("count companions", err)
	}
	return limit.Allows(count), nil
}

// AddBookmark no hace nada para anonimos. Tras guardar marca path como desactualizada.
func (s *CompanionService) AddBookmark(ctx context.Context, viewer domain.Viewer, companionID, path string) error {
	if !s.configured() {
		return ErrCompanionServiceNotConfigured
	}
	if !viewer.Authenticated() {
		return nil
	}
	bookmark := domain.Bookmark{
		CompanionID: strings.TrimSpace(companionID),
		UserID:      viewer.UserID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.bookmarks.Add(ctx, bookmark); err != nil {
		return writeErr("add bookmark", err)
	}
	s.markStale(ctx, path)
	return nil
}

func (s *CompanionService) RemoveBookmark(ctx context.Context, viewer domain.Viewer, companionID, path string) error {
	if !s.configured() {
		return ErrCompanionServiceNotConfigured
	}
	if !viewer.Authenticated() {
		return nil
	}
	if err := s.bookmarks.Remove(ctx, strings.TrimSpace(companionID), viewer.UserID); err != nil {
		return writeErr("remove bookmark", err)
	}
	s.markStale(ctx, path)
	return nil
}

// GetBookmarkedCompanions devuelve los favoritos de userID, todos con Bookmarked en true.
func (s *CompanionService) GetBookmarkedCompanions(ctx context.Context, userID string) ([]domain.Companion, error) {
	if !s.configured() {
		return nil, ErrCompanionServiceNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}

	list, err := s.bookmarks.ListCompanionsByUser(ctx, userID)
	if err != nil {
		return nil, writeErr("list bookmarked companions", err)
	}
	for i := range list {
		list[i].Bookmarked = true
	}
	return list, nil
}

// bookmarkSet hace una unica consulta agregada. Si falla se registra y se sigue sin favoritos.
func (s *CompanionService) bookmarkSet(ctx context.Context, userID string) map[string]struct{} {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	ids, err := s.bookmarks.CompanionIDsByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("bookmark lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s *CompanionService) withBookmarks(ctx context.Context, userID string, list []domain.Companion) []domain.Companion {
	bookmarked := s.bookmarkSet(ctx, userID)
	for i := range list {
		_, list[i].Bookmarked = bookmarked[list[i].ID]
	}
	return list
}

func (s *CompanionService) markStale(ctx context.Context, path string) {
	path = NormalizePath(path)
	if path == "" {
		return
	}
	if s.stale != nil {
		if err := s.stale.MarkStale(ctx, path); err != nil {
			s.logger.Warn("mark stale failed", zap.String("path", path), zap.Error(err))
		}
	}
	s.publish(events.Event{Kind: events.PathStale, Path: path})
}

func (s *CompanionService) publish(ev events.Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ev)
}
