package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"companion-api/internal/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenIssuer      = "companion-api"
)

// JWTService valida los tokens del proveedor de identidad y rota pares access/refresh.
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	store      RefreshTokenStore
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims lleva la identidad del viewer y sus entitlements de facturacion.
type Claims struct {
	UserID    string   `json:"uid"`
	Plan      string   `json:"plan,omitempty"`
	Features  []string `json:"features,omitempty"`
	TokenType string   `json:"typ"`
	jwt.RegisteredClaims
}

// Viewer convierte los claims en el viewer que consumen los servicios.
func (c Claims) Viewer() domain.Viewer {
	return domain.Viewer{
		UserID: c.UserID,
		Entitlements: domain.Entitlements{
			Plan:     c.Plan,
			Features: append([]string(nil), c.Features...),
		},
	}
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

func NewJWTService(secret string, accessTTL, refreshTTL time.Duration) *JWTService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &JWTService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     tokenIssuer,
		store:      NewMemoryRefreshTokenStore(),
	}
}

func NewJWTServiceWithStore(secret string, accessTTL, refreshTTL time.Duration, store RefreshTokenStore) *JWTService {
	svc := NewJWTService(secret, accessTTL, refreshTTL)
	if store != nil {
		svc.store = store
	}
	return svc
}

// GeneratePair emite un par de tokens para un viewer autenticado.
func (s *JWTService) GeneratePair(ctx context.Context, viewer domain.Viewer) (TokenPair, error) {
	if len(s.secret) == 0 || !viewer.Authenticated() {
		return TokenPair{}, ErrJWTInvalid
	}
	now := time.Now().UTC()
	access, err := s.sign(s.newClaims(viewer, now, s.accessTTL, tokenTypeAccess, ""))
	if err != nil {
		return TokenPair{}, err
	}
	jti := uuid.NewString()
	refresh, err := s.sign(s.newClaims(viewer, now, s.refreshTTL, tokenTypeRefresh, jti))
	if err != nil {
		return TokenPair{}, err
	}
	if s.store != nil {
		if err := s.store.Store(ctx, jti, viewer.UserID, s.refreshTTL); err != nil {
			return TokenPair{}, err
		}
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// RefreshPair consume un refresh token una sola vez y emite un par nuevo con los mismos entitlements.
func (s *JWTService) RefreshPair(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.parseTyped(refreshToken, tokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.ID == "" || s.store == nil {
		return TokenPair{}, ErrJWTInvalid
	}
	ok, err := s.store.Exists(ctx, claims.ID)
	if err != nil || !ok {
		return TokenPair{}, ErrJWTInvalid
	}
	if err := s.store.Revoke(ctx, claims.ID); err != nil {
		return TokenPair{}, ErrJWTInvalid
	}
	return s.GeneratePair(ctx, claims.Viewer())
}

func (s *JWTService) RevokeRefresh(ctx context.Context, refreshToken string) error {
	claims, err := s.parseTyped(refreshToken, tokenTypeRefresh)
	if err != nil {
		return err
	}
	if claims.ID == "" || s.store == nil {
		return ErrJWTInvalid
	}
	return s.store.Revoke(ctx, claims.ID)
}

func (s *JWTService) ParseAccessToken(accessToken string) (Claims, error) {
	return s.parseTyped(accessToken, tokenTypeAccess)
}

func (s *JWTService) newClaims(viewer domain.Viewer, now time.Time, ttl time.Duration, tokenType, jti string) Claims {
	return Claims{
		UserID:    viewer.UserID,
		Plan:      viewer.Entitlements.Plan,
		Features:  viewer.Entitlements.Features,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   viewer.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (s *JWTService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) parseTyped(tokenString, tokenType string) (Claims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrJWTInvalid
	}
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	if claims.TokenType != tokenType || !s.isValidClaims(claims) {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.UserID) == "" {
		return false
	}
	if claims.Subject != claims.UserID {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
