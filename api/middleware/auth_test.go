package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgauth "github.com/voltbridge/markethub/pkg/auth"
	"github.com/voltbridge/markethub/pkg/config"
	"github.com/voltbridge/markethub/pkg/enums"
	"github.com/voltbridge/markethub/pkg/logger"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "markethub"}
}

func TestAuthSeedsActorContext(t *testing.T) {
	cfg := testJWTConfig()
	token, err := pkgauth.MintActorToken(cfg, time.Now(), pkgauth.ActorTokenPayload{
		ActorNumber: "5790000000005",
		ActorRole:   enums.ActorRoleEnergySupplier,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var gotNumber string
	var gotRole enums.ActorRole
	handler := Auth(cfg, logger.New(logger.Options{ServiceName: "test"}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotNumber = ActorNumberFromContext(r.Context())
		gotRole = ActorRoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotNumber != "5790000000005" {
		t.Fatalf("actor number not seeded, got %q", gotNumber)
	}
	if gotRole != enums.ActorRoleEnergySupplier {
		t.Fatalf("actor role not seeded, got %q", gotRole)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsTamperedToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := pkgauth.MintActorToken(config.JWTConfig{Secret: "other-secret", Issuer: "markethub"}, time.Now(), pkgauth.ActorTokenPayload{
		ActorNumber: "5790000000005",
		ActorRole:   enums.ActorRoleEnergySupplier,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad signature")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
