package refresh

import (
	"context"

	"go.uber.org/zap"

	"companion-api/internal/domain"
)

const recentSessionsLimit = 10

// Source es el origen de datos de los tres listados de companions.
type Source interface {
	RecentSessions(ctx context.Context, limit int) ([]domain.Companion, error)
	UserSessions(ctx context.Context, userID string, limit int) ([]domain.Companion, error)
	UserCompanions(ctx context.Context, userID string) ([]domain.Companion, error)
}

// NewRecentSessions es el listado de la home con las ultimas sesiones.
func NewRecentSessions(logger *zap.Logger, src Source) *List[domain.Companion] {
	return New(logger, Options{
		Name:           "recent_sessions",
		ExpectedPath:   HomePath,
		TracksSessions: true,
	}, "", func(ctx context.Context) ([]domain.Companion, error) {
		return src.RecentSessions(ctx, recentSessionsLimit)
	})
}

// NewUserSessions lista las sesiones de userID en la pagina del recorrido.
func NewUserSessions(logger *zap.Logger, src Source, userID string) *List[domain.Companion] {
	return New(logger, Options{
		Name:           "user_sessions",
		ExpectedPath:   JourneyPath,
		RequireUser:    true,
		TracksSessions: true,
	}, userID, func(ctx context.Context) ([]domain.Companion, error) {
		return src.UserSessions(ctx, userID, recentSessionsLimit)
	})
}

// NewUserCompanions lista los companions creados por userID en la pagina del recorrido.
func NewUserCompanions(logger *zap.Logger, src Source, userID string) *List[domain.Companion] {
	return New(logger, Options{
		Name:         "user_companions",
		ExpectedPath: JourneyPath,
		RequireUser:  true,
	}, userID, func(ctx context.Context) ([]domain.Companion, error) {
		return src.UserCompanions(ctx, userID)
	})
}
