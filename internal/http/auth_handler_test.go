package http

import (
	"context"
	"net/http"
	"testing"

	"companion-api/internal/domain"
)

func TestRefresh_RotatesOnce(t *testing.T) {
	srv := newTestServer(t)
	pair, err := srv.jwt.GeneratePair(context.Background(), domain.Viewer{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	rec := srv.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": pair.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	decode(t, rec, &resp)
	if resp.Tokens.AccessToken == "" {
		t.Fatalf("expected access token")
	}

	rec = srv.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": pair.RefreshToken})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on reuse, got %d", rec.Code)
	}
}

func TestRefresh_MissingToken(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
