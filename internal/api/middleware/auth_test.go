package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken(testSecret, "user-1", "admin@example.com", "admin", time.Hour)
	if err != nil {
		t.Fatalf("NewToken returned error: %v", err)
	}

	claims, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := NewToken(testSecret, "user-1", "admin@example.com", "admin", time.Hour)
	if err != nil {
		t.Fatalf("NewToken returned error: %v", err)
	}

	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := NewToken(testSecret, "user-1", "admin@example.com", "admin", -time.Minute)
	if err != nil {
		t.Fatalf("NewToken returned error: %v", err)
	}

	if _, err := ParseToken(testSecret, token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestRequireAuth(t *testing.T) {
	var seen *Claims
	handler := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Missing header
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/properties", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d", rec.Code)
	}

	// Garbage token
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/properties", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d", rec.Code)
	}

	// Valid token
	token, err := NewToken(testSecret, "user-1", "admin@example.com", "admin", time.Hour)
	if err != nil {
		t.Fatalf("NewToken returned error: %v", err)
	}
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/properties", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d", rec.Code)
	}
	if seen == nil || seen.UserID != "user-1" {
		t.Errorf("claims not propagated: %+v", seen)
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := RequireAuth(testSecret)(RequireRole("admin")(next))

	staffToken, err := NewToken(testSecret, "user-2", "staff@example.com", "staff", time.Hour)
	if err != nil {
		t.Fatalf("NewToken returned error: %v", err)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/sync/all", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken)
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("staff role: status = %d, want 403", rec.Code)
	}

	adminToken, err := NewToken(testSecret, "user-1", "admin@example.com", "admin", time.Hour)
	if err != nil {
		t.Fatalf("NewToken returned error: %v", err)
	}
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/sync/all", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin role: status = %d", rec.Code)
	}
}
