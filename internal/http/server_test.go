// README: Route-level authorization tests for the API gateway.
package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	httptransport "github.com/MacTheAnon/joco-exec/internal/http"
	"github.com/MacTheAnon/joco-exec/internal/infra"
)

// stubTokenVerifier is a test double for infra.TokenVerifier.
type stubTokenVerifier struct {
	token *infra.FirebaseToken
	err   error
}

func (s *stubTokenVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.FirebaseToken, error) {
	return s.token, s.err
}

// buildRouter wires the gateway with nil services; the cases below are all
// rejected by middleware or request binding before any service is touched.
func buildRouter(verifier infra.TokenVerifier) http.Handler {
	gin.SetMode(gin.TestMode)
	return httptransport.NewServer(httptransport.ServerDeps{Verifier: verifier}).Routes()
}

func makeVerifier(uid, role string) *stubTokenVerifier {
	claims := map[string]interface{}{}
	if role != "" {
		claims["role"] = role
	}
	return &stubTokenVerifier{token: &infra.FirebaseToken{UID: uid, Claims: claims}}
}

func doRequest(h http.Handler, method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestBook_Unauthenticated(t *testing.T) {
	h := buildRouter(&stubTokenVerifier{err: errors.New("no token")})
	w := doRequest(h, http.MethodPost, "/api/reservations", map[string]any{"date": "2026-09-01"}, "Bearer badtoken")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestBook_InvalidJSONRejectedBeforeService(t *testing.T) {
	h := buildRouter(makeVerifier("cust1", ""))
	w := doRequest(h, http.MethodPost, "/api/reservations", map[string]any{"date": "2026-09-01"}, "Bearer sometoken")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing required fields, got %d", w.Code)
	}
}

func TestAssign_RequiresAdminRole(t *testing.T) {
	h := buildRouter(makeVerifier("driver1", "driver"))
	w := doRequest(h, http.MethodPost, "/api/reservations/txn-1/assign", map[string]any{"driver_id": "driver1"}, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestDelete_RequiresAdminRole(t *testing.T) {
	h := buildRouter(makeVerifier("driver1", "driver"))
	w := doRequest(h, http.MethodDelete, "/api/reservations/txn-1", nil, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestDispatchMessage_RequiresAdminRole(t *testing.T) {
	h := buildRouter(makeVerifier("driver1", "driver"))
	w := doRequest(h, http.MethodPost, "/api/dispatch/message", map[string]any{"driver_id": "d1", "text": "hi"}, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestDispatchAudit_RequiresAdminRole(t *testing.T) {
	h := buildRouter(makeVerifier("driver1", "driver"))
	w := doRequest(h, http.MethodGet, "/api/dispatch/reservations/txn-1", nil, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestDispatchMessage_AdminBadJSON(t *testing.T) {
	h := buildRouter(makeVerifier("admin1", "admin"))
	w := doRequest(h, http.MethodPost, "/api/dispatch/message", map[string]any{"driver_id": "d1"}, "Bearer sometoken")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing text, got %d", w.Code)
	}
}

func TestComplete_CustomerForbidden(t *testing.T) {
	h := buildRouter(makeVerifier("cust1", "")) // authenticated, but neither admin nor driver
	w := doRequest(h, http.MethodPost, "/api/reservations/txn-1/complete", nil, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestClaim_UnapprovedDriverForbidden(t *testing.T) {
	h := buildRouter(makeVerifier("driver1", "driver")) // no approved claim
	w := doRequest(h, http.MethodPost, "/api/reservations/txn-1/claim", nil, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	h := buildRouter(&stubTokenVerifier{})
	w := doRequest(h, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
