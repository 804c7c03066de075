package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "transport-secret"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

var gifHeader = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff")

type accounts map[uuid.UUID]*domain.User

func (a accounts) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := a[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

// testEnv is a router with real auth gates over a fixed set of accounts
type testEnv struct {
	router chi.Router
	users  accounts
	admin  *domain.User
	member *domain.User
}

func newTestEnv(t *testing.T, mount func(r chi.Router, gates Gates)) *testEnv {
	t.Helper()

	env := &testEnv{
		users:  accounts{},
		admin:  &domain.User{ID: uuid.New(), Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin},
		member: &domain.User{ID: uuid.New(), Name: "Member", Email: "member@example.com", Role: domain.RoleUser},
	}
	env.users[env.admin.ID] = env.admin
	env.users[env.member.ID] = env.member

	logger := zap.NewNop()
	gates := Gates{
		Auth:  middleware.AuthMiddleware(testSecret, env.users, logger),
		Admin: middleware.RequireAdmin(logger),
	}

	router := chi.NewRouter()
	mount(router, gates)
	env.router = router
	return env
}

func jwtWithExpiry(user *domain.User, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"exp":     expiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
}

func (e *testEnv) tokenFor(t *testing.T, user *domain.User) string {
	t.Helper()
	token, err := jwtWithExpiry(user, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(req *http.Request, as *domain.User, t *testing.T) *httptest.ResponseRecorder {
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+e.tokenFor(t, as))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, photo []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if photo != nil {
		part, err := mw.CreateFormFile("photo", "photo.png")
		require.NoError(t, err)
		_, err = io.Copy(part, bytes.NewReader(photo))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
