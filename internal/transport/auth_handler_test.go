package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/blobstore"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubUserService registers accounts in memory and fails on demand
type stubUserService struct {
	service.UserService
	byEmail map[string]*domain.User
	photos  map[uuid.UUID]*blobstore.Blob
	calls   int
}

func newStubUserService() *stubUserService {
	return &stubUserService{
		byEmail: make(map[string]*domain.User),
		photos:  make(map[uuid.UUID]*blobstore.Blob),
	}
}

func (s *stubUserService) Register(ctx context.Context, in service.RegisterInput) (*domain.User, error) {
	s.calls++
	if _, exists := s.byEmail[in.Email]; exists {
		return nil, repository.ErrUserAlreadyExists
	}
	if len(in.Password) > 72 || len(in.Answer) > 72 {
		return nil, service.ErrSecretTooLong
	}
	if in.Photo != nil && int64(len(in.Photo.Data)) > service.DefaultMaxPhotoBytes {
		return nil, service.ErrPhotoTooLarge
	}
	user := &domain.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: "hashed:" + in.Password,
		AnswerHash:   "hashed:" + in.Answer,
		Role:         domain.RoleUser,
	}
	if in.Photo != nil {
		user.Photo = &domain.PhotoRef{Key: "users/" + user.ID.String(), ContentType: "image/png"}
		s.photos[user.ID] = &blobstore.Blob{ContentType: "image/png", Data: in.Photo.Data}
	}
	s.byEmail[in.Email] = user
	return user, nil
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return "", nil, service.ErrEmailNotRegistered
	}
	if user.PasswordHash != "hashed:"+password {
		return "", nil, service.ErrInvalidPassword
	}
	return "signed-token", user, nil
}

func (s *stubUserService) ForgotPassword(ctx context.Context, email, answer, newPassword string) error {
	user, ok := s.byEmail[email]
	if !ok || user.AnswerHash != "hashed:"+answer {
		return service.ErrWrongEmailOrAnswer
	}
	user.PasswordHash = "hashed:" + newPassword
	return nil
}

func (s *stubUserService) UpdateProfile(ctx context.Context, id uuid.UUID, in service.ProfileInput) (*domain.User, error) {
	return &domain.User{ID: id, Name: in.Name, Phone: in.Phone, Address: in.Address, Role: domain.RoleUser}, nil
}

func (s *stubUserService) GetPhoto(ctx context.Context, id uuid.UUID) (*blobstore.Blob, error) {
	blob, ok := s.photos[id]
	if !ok {
		return nil, service.ErrPhotoNotFound
	}
	return blob, nil
}

func newAuthEnv(t *testing.T) (*testEnv, *stubUserService) {
	users := newStubUserService()
	handler := NewAuthHandler(users, 0, zap.NewNop())
	env := newTestEnv(t, func(r chi.Router, gates Gates) {
		r.Route("/api/v1/auth", func(r chi.Router) {
			handler.RegisterRoutes(r, gates)
		})
	})
	return env, users
}

func registerFields(email string) map[string]string {
	return map[string]string{
		"name":     "Ada",
		"email":    email,
		"password": "secret1",
		"phone":    "555-0100",
		"address":  "1 Main St",
		"answer":   "blue",
	}
}

func TestRegister_CreatesAccountWithoutSecrets(t *testing.T) {
	env, _ := newAuthEnv(t)

	w := env.do(multipartRequest(t, "POST", "/api/v1/auth/register", registerFields("ada@example.com"), pngHeader), nil, t)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, true, user["has_photo"])
	assert.NotContains(t, w.Body.String(), "hashed:")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegister_Duplicate(t *testing.T) {
	env, _ := newAuthEnv(t)

	first := env.do(multipartRequest(t, "POST", "/api/v1/auth/register", registerFields("dup@example.com"), nil), nil, t)
	require.Equal(t, http.StatusCreated, first.Code)

	second := env.do(multipartRequest(t, "POST", "/api/v1/auth/register", registerFields("dup@example.com"), nil), nil, t)
	assert.Equal(t, http.StatusConflict, second.Code)
	body := decodeBody(t, second)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "already registered, please login", body["message"])
}

// Any missing registration field is rejected before the service runs
func TestProperty_RegisterRequiresEveryField(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("omitting a field yields 400 naming it", prop.ForAll(
		func(missing string) bool {
			env, users := newAuthEnv(t)
			fields := registerFields("req@example.com")
			delete(fields, missing)

			w := env.do(multipartRequest(t, "POST", "/api/v1/auth/register", fields, nil), nil, t)
			body := decodeBody(t, w)

			return w.Code == http.StatusBadRequest &&
				body["message"] == missing+" is required" &&
				users.calls == 0
		},
		gen.OneConstOf("name", "email", "password", "phone", "address", "answer"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRegister_PhotoTooLarge(t *testing.T) {
	env, _ := newAuthEnv(t)

	big := append(append([]byte{}, pngHeader...), make([]byte, service.DefaultMaxPhotoBytes)...)
	w := env.do(multipartRequest(t, "POST", "/api/v1/auth/register", registerFields("big@example.com"), big), nil, t)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.ErrPhotoTooLarge.Error(), decodeBody(t, w)["message"])
}

func TestLogin(t *testing.T) {
	env, _ := newAuthEnv(t)
	require.Equal(t, http.StatusCreated,
		env.do(multipartRequest(t, "POST", "/api/v1/auth/register", registerFields("login@example.com"), nil), nil, t).Code)

	tests := []struct {
		name    string
		body    map[string]string
		status  int
		message string
	}{
		{"success", map[string]string{"email": "login@example.com", "password": "secret1"}, http.StatusOK, "login successfully"},
		{"unknown email", map[string]string{"email": "ghost@example.com", "password": "secret1"}, http.StatusUnauthorized, "email is not registered"},
		{"wrong password", map[string]string{"email": "login@example.com", "password": "nope"}, http.StatusUnauthorized, "invalid password"},
		{"missing password", map[string]string{"email": "login@example.com"}, http.StatusBadRequest, "password is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(jsonRequest(t, "POST", "/api/v1/auth/login", tt.body), nil, t)
			assert.Equal(t, tt.status, w.Code)

			body := decodeBody(t, w)
			assert.Equal(t, tt.message, body["message"])
			if tt.status == http.StatusOK {
				assert.Equal(t, "signed-token", body["token"])
			} else {
				assert.Equal(t, false, body["success"])
			}
		})
	}
}

func TestForgotPassword(t *testing.T) {
	env, users := newAuthEnv(t)
	require.Equal(t, http.StatusCreated,
		env.do(multipartRequest(t, "POST", "/api/v1/auth/register", registerFields("forgot@example.com"), nil), nil, t).Code)

	w := env.do(jsonRequest(t, "POST", "/api/v1/auth/forgot-password", map[string]string{
		"email": "forgot@example.com", "answer": "red", "newPassword": "changed",
	}), nil, t)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["success"])
	assert.Equal(t, "hashed:secret1", users.byEmail["forgot@example.com"].PasswordHash)

	w = env.do(jsonRequest(t, "POST", "/api/v1/auth/forgot-password", map[string]string{
		"email": "forgot@example.com", "answer": "blue",
	}), nil, t)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "newPassword is required", decodeBody(t, w)["message"])

	w = env.do(jsonRequest(t, "POST", "/api/v1/auth/forgot-password", map[string]string{
		"email": "forgot@example.com", "answer": "blue", "newPassword": "changed",
	}), nil, t)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hashed:changed", users.byEmail["forgot@example.com"].PasswordHash)
}

func TestIdentityProbes(t *testing.T) {
	env, _ := newAuthEnv(t)

	tests := []struct {
		name   string
		path   string
		as     *domain.User
		status int
	}{
		{"user-auth anonymous", "/api/v1/auth/user-auth", nil, http.StatusUnauthorized},
		{"user-auth member", "/api/v1/auth/user-auth", env.member, http.StatusOK},
		{"admin-auth member", "/api/v1/auth/admin-auth", env.member, http.StatusForbidden},
		{"admin-auth admin", "/api/v1/auth/admin-auth", env.admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(httptest.NewRequest("GET", tt.path, nil), tt.as, t)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"ok":true}`, w.Body.String())
			}
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	env, _ := newAuthEnv(t)

	w := env.do(multipartRequest(t, "PUT", "/api/v1/auth/profile", map[string]string{"name": "Grace", "address": "2 Side St"}, nil), env.member, t)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "Grace", user["name"])
	assert.Equal(t, env.member.ID.String(), user["_id"])

	w = env.do(multipartRequest(t, "PUT", "/api/v1/auth/profile", map[string]string{"password": "abc"}, nil), env.member, t)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(multipartRequest(t, "PUT", "/api/v1/auth/profile", map[string]string{"name": "Grace"}, nil), nil, t)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetPhoto(t *testing.T) {
	env, users := newAuthEnv(t)
	require.Equal(t, http.StatusCreated,
		env.do(multipartRequest(t, "POST", "/api/v1/auth/register", registerFields("pic@example.com"), pngHeader), nil, t).Code)
	user := users.byEmail["pic@example.com"]

	w := env.do(httptest.NewRequest("GET", "/api/v1/auth/get-photo/"+user.ID.String(), nil), nil, t)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader, w.Body.Bytes())

	w = env.do(httptest.NewRequest("GET", "/api/v1/auth/get-photo/"+uuid.NewString(), nil), nil, t)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(httptest.NewRequest("GET", "/api/v1/auth/get-photo/not-an-id", nil), nil, t)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	env, _ := newAuthEnv(t)

	req := httptest.NewRequest("GET", "/api/v1/auth/user-auth", nil)
	req.Header.Set("Authorization", "Bearer "+expiredToken(t, env.member))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "token expired"))
}

func expiredToken(t *testing.T, user *domain.User) string {
	t.Helper()
	token, err := jwtWithExpiry(user, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	return token
}

func TestSecretsOverBcryptLimitAreClientErrors(t *testing.T) {
	env, users := newAuthEnv(t)
	long := strings.Repeat("x", 80)

	t.Run("register password", func(t *testing.T) {
		fields := registerFields("long@example.com")
		fields["password"] = long
		w := env.do(multipartRequest(t, "POST", "/api/v1/auth/register", fields, nil), nil, t)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "password must be at most 72 characters long", decodeBody(t, w)["message"])
	})

	t.Run("register multibyte answer", func(t *testing.T) {
		fields := registerFields("euro@example.com")
		fields["answer"] = strings.Repeat("€", 30)
		w := env.do(multipartRequest(t, "POST", "/api/v1/auth/register", fields, nil), nil, t)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, service.ErrSecretTooLong.Error(), decodeBody(t, w)["message"])
	})

	assert.Empty(t, users.byEmail)

	t.Run("forgot password", func(t *testing.T) {
		w := env.do(jsonRequest(t, "POST", "/api/v1/auth/forgot-password", map[string]string{
			"email": "a@example.com", "answer": "blue", "newPassword": long,
		}), nil, t)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "newPassword must be at most 72 characters long", decodeBody(t, w)["message"])
	})

	t.Run("profile password", func(t *testing.T) {
		w := env.do(multipartRequest(t, "PUT", "/api/v1/auth/profile", map[string]string{"password": long}, nil), env.member, t)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "password must be at most 72 characters long", decodeBody(t, w)["message"])
	})
}
