package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classware/api/internal/config"
	"classware/api/internal/models"
	"classware/api/internal/ratelimit"
	"classware/api/internal/repository"
	"classware/api/internal/service"
)

type memUserStore struct {
	users map[string]models.Principal
}

func (m *memUserStore) Create(_ context.Context, user models.Principal) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (models.Principal, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.Principal{}, repository.ErrUserNotFound
}

func (m *memUserStore) GetByID(_ context.Context, id string) (models.Principal, error) {
	user, ok := m.users[id]
	if !ok {
		return models.Principal{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *memUserStore) Update(_ context.Context, id string, update repository.UserUpdate) (models.Principal, error) {
	user, ok := m.users[id]
	if !ok {
		return models.Principal{}, repository.ErrUserNotFound
	}
	if update.PasswordHash != nil {
		user.PasswordHash = update.PasswordHash
	}
	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	m.users[id] = user
	return user, nil
}

func (m *memUserStore) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUserStore) List(_ context.Context) ([]models.Principal, error) {
	users := make([]models.Principal, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

type memCodeStore struct {
	codes map[string]models.RecoveryCode
}

func (m *memCodeStore) Upsert(_ context.Context, code models.RecoveryCode) error {
	m.codes[code.Email] = code
	return nil
}

func (m *memCodeStore) Get(_ context.Context, email string) (models.RecoveryCode, error) {
	code, ok := m.codes[email]
	if !ok {
		return models.RecoveryCode{}, repository.ErrCodeNotFound
	}
	return code, nil
}

func (m *memCodeStore) Delete(_ context.Context, email string) error {
	delete(m.codes, email)
	return nil
}

type memMailer struct {
	bodies []string
	err    error
}

func (m *memMailer) Send(_ context.Context, _ string, _ string, body string) error {
	if m.err != nil {
		return m.err
	}
	m.bodies = append(m.bodies, body)
	return nil
}

type testHarness struct {
	router *gin.Engine
	users  *memUserStore
	codes  *memCodeStore
	mailer *memMailer
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			TokenSecret: "handler-test-secret",
			TokenTTL:    time.Hour,
		},
		OTP:       config.OTPConfig{TTLMinutes: 10},
		Mail:      config.MailConfig{SendTimeout: time.Second},
		RateLimit: config.RateLimitConfig{MaxAttempts: 100, Window: time.Minute},
	}

	users := &memUserStore{users: make(map[string]models.Principal)}
	codes := &memCodeStore{codes: make(map[string]models.RecoveryCode)}
	mailer := &memMailer{}
	logger := zerolog.Nop()

	h := HandlerSet{
		log:            logger,
		cfg:            cfg,
		authService:    service.NewAuthService(users, nil, cfg, logger),
		accountService: service.NewAccountService(users, logger),
		resetService:   service.NewResetService(users, codes, mailer, cfg, logger),
		limiter: ratelimit.New(
			redis.NewClient(&redis.Options{Addr: mr.Addr()}),
			cfg.RateLimit.MaxAttempts,
			cfg.RateLimit.Window,
		),
	}

	router := gin.New()
	h.Mount(router.Group("/api"))

	return &testHarness{router: router, users: users, codes: codes, mailer: mailer}
}

func (h *testHarness) post(t *testing.T, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func registerPayload() map[string]string {
	return map[string]string{
		"email":          "a@x.com",
		"password":       "OriginalPass1",
		"username":       "alice",
		"phone":          "555-0100",
		"securityAnswer": "blue",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	h := newTestHarness(t)

	w := h.post(t, "/api/v1/auth/register", registerPayload(), nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "passwordHash")
	assert.Contains(t, w.Body.String(), `"role":"Developer"`)

	// Duplicate email is a conflict regardless of ordering.
	w = h.post(t, "/api/v1/auth/register", registerPayload(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "email_taken")
}

func TestLoginEndpoint(t *testing.T) {
	h := newTestHarness(t)
	h.post(t, "/api/v1/auth/register", registerPayload(), nil)

	w := h.post(t, "/api/v1/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "OriginalPass1",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)

	w = h.post(t, "/api/v1/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "WrongPass1",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.post(t, "/api/v1/auth/login", map[string]string{
		"email":    "nobody@x.com",
		"password": "whatever1",
	}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestForgotFlowEndpoints(t *testing.T) {
	h := newTestHarness(t)
	h.post(t, "/api/v1/auth/register", registerPayload(), nil)

	w := h.post(t, "/api/v1/auth/forgot", map[string]string{
		"step":  "request",
		"email": "a@x.com",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	code := h.codes.codes["a@x.com"].Code
	require.Len(t, code, 6)

	w = h.post(t, "/api/v1/auth/forgot", map[string]string{
		"step":  "verify",
		"email": "a@x.com",
		"code":  code,
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.post(t, "/api/v1/auth/forgot", map[string]string{
		"step":        "reset",
		"email":       "a@x.com",
		"code":        code,
		"newPassword": "BrandNewPass1",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The code is consumed.
	_, ok := h.codes.codes["a@x.com"]
	assert.False(t, ok)

	w = h.post(t, "/api/v1/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "BrandNewPass1",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestForgotUnknownEmail(t *testing.T) {
	h := newTestHarness(t)

	w := h.post(t, "/api/v1/auth/forgot", map[string]string{
		"step":  "request",
		"email": "nobody@x.com",
	}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestForgotInvalidStep(t *testing.T) {
	h := newTestHarness(t)

	w := h.post(t, "/api/v1/auth/forgot", map[string]string{
		"step":  "replay",
		"email": "a@x.com",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesGated(t *testing.T) {
	h := newTestHarness(t)
	h.post(t, "/api/v1/auth/register", registerPayload(), nil)

	w := h.post(t, "/api/v1/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "OriginalPass1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// A Standard token on an Admin route: forbidden, not unauthenticated.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// No token at all: unauthenticated.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/admin/users", nil)
	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutStateless(t *testing.T) {
	h := newTestHarness(t)

	w := h.post(t, "/api/v1/auth/logout", map[string]string{}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
