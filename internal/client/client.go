// Package client consume la API HTTP de companions. Lo usa el cliente de terminal.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"companion-api/internal/domain"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// APIError es una respuesta no exitosa de la API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

type Client struct {
	http   *resty.Client
	userID string
}

// New arma el cliente contra baseURL. Con token vacio las requests van como anonimas.
func New(baseURL, token string) *Client {
	rc := resty.New()
	rc.SetBaseURL(strings.TrimRight(baseURL, "/"))
	rc.SetTimeout(15 * time.Second)
	rc.SetHeader("Accept", "application/json")
	if token = strings.TrimSpace(token); token != "" {
		rc.SetAuthToken(token)
	}
	return &Client{http: rc, userID: UserIDFromToken(token)}
}

// UserID es el uid del token configurado, vacio para anonimos.
func (c *Client) UserID() string {
	return c.userID
}

// UserIDFromToken lee el claim uid sin verificar la firma; la API es quien la verifica.
func UserIDFromToken(token string) string {
	if strings.TrimSpace(token) == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	uid, _ := claims["uid"].(string)
	return uid
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, query url.Values) error {
	var apiErr errorBody
	req := c.http.R().SetContext(ctx).SetError(&apiErr)
	if out != nil {
		req.SetResult(out)
	}
	if body != nil {
		req.SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = resp.Status()
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}
	return nil
}

type companionEnvelope struct {
	Companion domain.Companion `json:"companion"`
}

type companionsEnvelope struct {
	Companions []domain.Companion `json:"companions"`
}

// CreateInput replica el body de POST /companions.
type CreateInput struct {
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	Topic    string `json:"topic"`
	Voice    string `json:"voice,omitempty"`
	Style    string `json:"style,omitempty"`
	Duration int    `json:"duration"`
}

func (c *Client) CreateCompanion(ctx context.Context, input CreateInput) (domain.Companion, error) {
	var out companionEnvelope
	if err := c.do(ctx, http.MethodPost, "/companions", input, &out, nil); err != nil {
		return domain.Companion{}, err
	}
	return out.Companion, nil
}

func (c *Client) ListCompanions(ctx context.Context, filter domain.CompanionFilter) ([]domain.Companion, error) {
	q := url.Values{}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Subject != "" {
		q.Set("subject", filter.Subject)
	}
	if filter.Topic != "" {
		q.Set("topic", filter.Topic)
	}
	var out companionsEnvelope
	if err := c.do(ctx, http.MethodGet, "/companions", nil, &out, q); err != nil {
		return nil, err
	}
	return out.Companions, nil
}

func (c *Client) GetCompanion(ctx context.Context, id string) (domain.Companion, error) {
	var out companionEnvelope
	if err := c.do(ctx, http.MethodGet, "/companions/"+url.PathEscape(id), nil, &out, nil); err != nil {
		return domain.Companion{}, err
	}
	return out.Companion, nil
}

func (c *Client) DeleteCompanion(ctx context.Context, id string) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/companions/"+url.PathEscape(id), nil, &out, nil); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (c *Client) CanCreate(ctx context.Context) (bool, error) {
	var out struct {
		CanCreate bool `json:"can_create"`
	}
	if err := c.do(ctx, http.MethodGet, "/companions/permissions", nil, &out, nil); err != nil {
		return false, err
	}
	return out.CanCreate, nil
}

// StartSession registra una sesion con el companion.
func (c *Client) StartSession(ctx context.Context, companionID string) (domain.SessionHistoryEntry, error) {
	var out struct {
		Session domain.SessionHistoryEntry `json:"session"`
	}
	if err := c.do(ctx, http.MethodPost, "/companions/"+url.PathEscape(companionID)+"/sessions", nil, &out, nil); err != nil {
		return domain.SessionHistoryEntry{}, err
	}
	return out.Session, nil
}

func (c *Client) Bookmark(ctx context.Context, companionID, path string) error {
	body := map[string]string{"path": path}
	return c.do(ctx, http.MethodPost, "/companions/"+url.PathEscape(companionID)+"/bookmark", body, nil, nil)
}

func (c *Client) Unbookmark(ctx context.Context, companionID, path string) error {
	q := url.Values{}
	if path != "" {
		q.Set("path", path)
	}
	return c.do(ctx, http.MethodDelete, "/companions/"+url.PathEscape(companionID)+"/bookmark", nil, nil, q)
}

func (c *Client) RecentSessions(ctx context.Context, limit int) ([]domain.Companion, error) {
	var out companionsEnvelope
	if err := c.do(ctx, http.MethodGet, "/sessions/recent", nil, &out, limitQuery(limit)); err != nil {
		return nil, err
	}
	return out.Companions, nil
}

func (c *Client) UserSessions(ctx context.Context, userID string, limit int) ([]domain.Companion, error) {
	var out companionsEnvelope
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/sessions", nil, &out, limitQuery(limit)); err != nil {
		return nil, err
	}
	return out.Companions, nil
}

func (c *Client) UserCompanions(ctx context.Context, userID string) ([]domain.Companion, error) {
	var out companionsEnvelope
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/companions", nil, &out, nil); err != nil {
		return nil, err
	}
	return out.Companions, nil
}

func (c *Client) UserBookmarks(ctx context.Context, userID string) ([]domain.Companion, error) {
	var out companionsEnvelope
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/bookmarks", nil, &out, nil); err != nil {
		return nil, err
	}
	return out.Companions, nil
}

// RenderVersion devuelve la version de staleness de path.
func (c *Client) RenderVersion(ctx context.Context, path string) (int64, error) {
	var out struct {
		Version int64 `json:"version"`
	}
	if err := c.do(ctx, http.MethodGet, "/render/version", nil, &out, url.Values{"path": {path}}); err != nil {
		return 0, err
	}
	return out.Version, nil
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": {strconv.Itoa(limit)}}
}
