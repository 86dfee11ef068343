package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgAuth "github.com/evmotors/warranty-backend/pkg/auth"
	"github.com/evmotors/warranty-backend/pkg/config"
	"github.com/evmotors/warranty-backend/pkg/enums"
	"github.com/google/uuid"
)

var testJWT = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "warranty-backend-test",
	ExpirationMinutes: 5,
}

func protectedHandler(t *testing.T, wantRole enums.ActorRole) http.Handler {
	t.Helper()
	return Auth(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := ActorFromContext(r.Context())
		if err != nil {
			t.Fatalf("actor missing after auth: %v", err)
		}
		if actor.Role != wantRole {
			t.Fatalf("expected role %s, got %s", wantRole, actor.Role)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestAuthAcceptsValidToken(t *testing.T) {
	t.Parallel()

	token, err := pkgAuth.MintAccessToken(testJWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.ActorRoleTechnician,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protectedHandler(t, enums.ActorRoleTechnician).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRejectsMissingAndMalformedTokens(t *testing.T) {
	t.Parallel()

	handler := Auth(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Bearer ", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	other := testJWT
	other.Secret = "different-secret"
	token, err := pkgAuth.MintAccessToken(other, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	handler := Auth(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireCapability(t *testing.T) {
	t.Parallel()

	handler := RequireCapability("caselines:decide", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	allowed := httptest.NewRequest(http.MethodPost, "/", nil)
	allowed = allowed.WithContext(WithActor(allowed.Context(), pkgAuth.ActorRef{UserID: uuid.New(), Role: enums.ActorRoleServiceManager}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, allowed)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("service manager should pass, got %d", rec.Code)
	}

	denied := httptest.NewRequest(http.MethodPost, "/", nil)
	denied = denied.WithContext(WithActor(denied.Context(), pkgAuth.ActorRef{UserID: uuid.New(), Role: enums.ActorRoleTechnician}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, denied)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("technician should be denied, got %d", rec.Code)
	}

	anonymous := httptest.NewRequest(http.MethodPost, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, anonymous)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing actor should be unauthorized, got %d", rec.Code)
	}
}
