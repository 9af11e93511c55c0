package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"classware/api/internal/config"
	"classware/api/internal/federation"
	"classware/api/internal/models"
	"classware/api/internal/repository"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			TokenSecret: "test-secret-0123456789",
			TokenTTL:    24 * time.Hour,
		},
		OTP: config.OTPConfig{TTLMinutes: 10},
		Mail: config.MailConfig{
			From:        "noreply@classware.test",
			SendTimeout: time.Second,
		},
	}
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.Principal
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.Principal)}
}

func (f *fakeUserStore) Create(_ context.Context, user models.Principal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if existing.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (models.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.Principal{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (models.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return models.Principal{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) Update(_ context.Context, id string, update repository.UserUpdate) (models.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return models.Principal{}, repository.ErrUserNotFound
	}

	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	if update.SecurityAnswer != nil {
		user.SecurityAnswer = *update.SecurityAnswer
	}
	if update.PasswordHash != nil {
		user.PasswordHash = update.PasswordHash
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.Status != nil {
		user.Status = *update.Status
	}
	user.UpdatedAt = time.Now()

	f.users[id] = user
	return user, nil
}

func (f *fakeUserStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) List(_ context.Context) ([]models.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	users := make([]models.Principal, 0, len(f.users))
	for _, user := range f.users {
		users = append(users, user)
	}
	return users, nil
}

type fakeCodeStore struct {
	mu    sync.Mutex
	codes map[string]models.RecoveryCode
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{codes: make(map[string]models.RecoveryCode)}
}

func (f *fakeCodeStore) Upsert(_ context.Context, code models.RecoveryCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	code.CreatedAt = time.Now()
	f.codes[code.Email] = code
	return nil
}

func (f *fakeCodeStore) Get(_ context.Context, email string) (models.RecoveryCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	code, ok := f.codes[email]
	if !ok {
		return models.RecoveryCode{}, repository.ErrCodeNotFound
	}
	return code, nil
}

func (f *fakeCodeStore) Delete(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.codes, email)
	return nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to string, subject string, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type fakeVerifier struct {
	claims federation.Claims
	err    error
}

func (f *fakeVerifier) VerifyAssertion(context.Context, string) (federation.Claims, error) {
	if f.err != nil {
		return federation.Claims{}, f.err
	}
	return f.claims, nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
