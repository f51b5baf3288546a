package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MacTheAnon/joco-exec/internal/types"
)

type memRecorder struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemRecorder() *memRecorder {
	return &memRecorder{keys: map[string]string{}}
}

func (m *memRecorder) Lookup(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.keys[key]
	return txn, ok, nil
}

func (m *memRecorder) Record(_ context.Context, key, txn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = txn
	return nil
}

func TestCaptureSuccessPassesKeyThrough(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req squarePaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotKey = req.IdempotencyKey
		if req.AmountMoney.Amount != 12000 || req.AmountMoney.Currency != "USD" {
			t.Errorf("unexpected amount: %+v", req.AmountMoney)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing bearer token")
		}
		json.NewEncoder(w).Encode(map[string]any{"payment": map[string]string{"id": "txn_123"}})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "test-token", time.Second, newMemRecorder())
	res, err := g.Capture(context.Background(), CaptureRequest{
		SourceID:       "cnon:card-nonce",
		Amount:         types.USD(12000),
		IdempotencyKey: "attempt-1",
	})
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if res.TransactionID != "txn_123" {
		t.Errorf("transaction id = %s, want txn_123", res.TransactionID)
	}
	if gotKey != "attempt-1" {
		t.Errorf("idempotency key reached gateway as %q, want attempt-1 (must pass through unchanged)", gotKey)
	}
}

func TestCaptureReplaySkipsGateway(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{"payment": map[string]string{"id": "txn_once"}})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "t", time.Second, newMemRecorder())
	req := CaptureRequest{SourceID: "src", Amount: types.USD(500), IdempotencyKey: "attempt-retry"}

	first, err := g.Capture(context.Background(), req)
	if err != nil {
		t.Fatalf("first capture: %v", err)
	}
	second, err := g.Capture(context.Background(), req)
	if err != nil {
		t.Fatalf("second capture: %v", err)
	}
	if first.TransactionID != second.TransactionID {
		t.Errorf("replay produced a different transaction: %s vs %s", first.TransactionID, second.TransactionID)
	}
	if calls != 1 {
		t.Errorf("gateway called %d times, want 1", calls)
	}
}

func TestCaptureDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{"errors": []map[string]string{
			{"category": "PAYMENT_METHOD_ERROR", "code": "CARD_DECLINED", "detail": "card declined"},
		}})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "t", time.Second, nil)
	_, err := g.Capture(context.Background(), CaptureRequest{SourceID: "src", Amount: types.USD(100), IdempotencyKey: "k"})
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
}

func TestCaptureGatewayUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "t", time.Second, nil)
	_, err := g.Capture(context.Background(), CaptureRequest{SourceID: "src", Amount: types.USD(100), IdempotencyKey: "k"})
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestCaptureTimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "t", 20*time.Millisecond, nil)
	_, err := g.Capture(context.Background(), CaptureRequest{SourceID: "src", Amount: types.USD(100), IdempotencyKey: "k"})
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable on timeout, got %v", err)
	}
}
