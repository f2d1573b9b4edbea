package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lil-gargs/backend/internal/config"
	"github.com/lil-gargs/backend/internal/models"
	"github.com/lil-gargs/backend/internal/services"
	"go.uber.org/zap"
)

// stubSessionStore покрывает только пути, до которых доходят эти тесты.
type stubSessionStore struct {
	session *models.VerificationSession
}

func (s *stubSessionStore) Create(ctx context.Context, sess *models.VerificationSession) error {
	sess.ID = uuid.New()
	s.session = sess
	return nil
}

func (s *stubSessionStore) GetByToken(ctx context.Context, token string) (*models.VerificationSession, error) {
	if s.session == nil || s.session.Token != token {
		return nil, nil
	}
	copied := *s.session
	return &copied, nil
}

func (s *stubSessionStore) BindWallet(ctx context.Context, id uuid.UUID, address string) error {
	return nil
}

func (s *stubSessionStore) Transition(ctx context.Context, id uuid.UUID, from, to string, verifiedAt *time.Time) (bool, error) {
	s.session.Status = to
	return true, nil
}

func newTestApp(t *testing.T, enabled bool) (*fiber.App, *stubSessionStore) {
	t.Helper()

	cfg := &config.Config{
		VerificationEnabled: enabled,
		SessionTTL:          10 * time.Minute,
		OracleTimeout:       time.Second,
	}
	store := &stubSessionStore{}
	svc := services.NewVerificationService(store, nil, nil, nil, nil, nil, cfg, zap.NewNop())
	h := NewSessionHandler(svc, zap.NewNop())

	app := fiber.New()
	app.Post("/session", h.CreateSession)
	app.Get("/session/:token", h.GetSession)
	app.Post("/session/verify", h.VerifySession)
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("invalid json response %q: %v", raw, err)
	}
	return resp.StatusCode, parsed
}

func TestSessionHandler_ErrorMapping(t *testing.T) {
	app, _ := newTestApp(t, true)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "create with missing fields is a validation error",
			method:     "POST",
			path:       "/session",
			body:       `{}`,
			wantStatus: fiber.StatusBadRequest,
			wantCode:   services.CodeValidation,
		},
		{
			name:       "create with malformed address is a validation error",
			method:     "POST",
			path:       "/session",
			body:       `{"discordId":"1","guildId":"2","walletAddress":"not-base58-0OIl"}`,
			wantStatus: fiber.StatusBadRequest,
			wantCode:   services.CodeValidation,
		},
		{
			name:       "get unknown token is not found",
			method:     "GET",
			path:       "/session/no-such-token",
			body:       "",
			wantStatus: fiber.StatusNotFound,
			wantCode:   services.CodeNotFound,
		},
		{
			name:       "verify without signature is a validation error",
			method:     "POST",
			path:       "/session/verify",
			body:       `{"token":"abc"}`,
			wantStatus: fiber.StatusBadRequest,
			wantCode:   services.CodeValidation,
		},
		{
			name:       "verify unknown token is not found",
			method:     "POST",
			path:       "/session/verify",
			body:       `{"token":"no-such-token","signature":"sig"}`,
			wantStatus: fiber.StatusNotFound,
			wantCode:   services.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, tt.method, tt.path, tt.body)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %v)", status, tt.wantStatus, body)
			}
			if code, _ := body["code"].(string); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
			if success, _ := body["success"].(bool); success {
				t.Errorf("success = true on an error response")
			}
		})
	}
}

func TestSessionHandler_DisabledService(t *testing.T) {
	app, _ := newTestApp(t, false)

	status, body := doJSON(t, app, "POST", "/session", `{"discordId":"1","guildId":"2"}`)
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", status, fiber.StatusServiceUnavailable)
	}
	if code, _ := body["code"].(string); code != services.CodeConfiguration {
		t.Errorf("code = %q, want %q", code, services.CodeConfiguration)
	}
}

func TestSessionHandler_CreateAndGet(t *testing.T) {
	app, store := newTestApp(t, true)

	status, body := doJSON(t, app, "POST", "/session", `{"discordId":"111","guildId":"222","username":"garg"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d, want %d (body %v)", status, fiber.StatusCreated, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("create response has no token")
	}
	if msg, _ := body["message"].(string); msg == "" {
		t.Error("create response has no signable message")
	}

	status, body = doJSON(t, app, "GET", "/session/"+token, "")
	if status != fiber.StatusOK {
		t.Fatalf("get status = %d, want %d (body %v)", status, fiber.StatusOK, body)
	}
	session, _ := body["session"].(map[string]any)
	if session == nil {
		t.Fatal("get response has no session")
	}
	if got, _ := session["status"].(string); got != models.SessionStatusPending {
		t.Errorf("session status = %q, want %q", got, models.SessionStatusPending)
	}
	if store.session == nil {
		t.Fatal("session was not persisted through the store")
	}
}
