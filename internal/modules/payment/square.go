// README: Payment capture adapter for the Square Payments API.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MacTheAnon/joco-exec/internal/types"
)

var (
	// ErrDeclined is terminal for this payment instrument; the caller may
	// show a generic decline message but must not retry the same card.
	ErrDeclined = errors.New("payment declined")
	// ErrGatewayUnavailable is transient; a retry with the same idempotency
	// key is safe and can never double-charge.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

type CaptureRequest struct {
	SourceID       string
	Amount         types.Money
	IdempotencyKey string
}

type CaptureResult struct {
	TransactionID string
}

// KeyRecorder remembers idempotency key → transaction id so a replayed
// booking attempt returns the recorded transaction without re-contacting
// the gateway. The key is still passed through to Square unchanged, so the
// gateway's own idempotency holds even when the recorder has no entry.
type KeyRecorder interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Record(ctx context.Context, key, transactionID string) error
}

// Gateway captures payments through Square's REST API. One external call
// per booking attempt; amounts are always fully-computed integer cents.
type Gateway struct {
	baseURL string
	token   string
	client  *http.Client
	keys    KeyRecorder
}

func NewGateway(baseURL, token string, timeout time.Duration, keys KeyRecorder) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		keys:    keys,
	}
}

type squarePaymentRequest struct {
	SourceID       string      `json:"source_id"`
	IdempotencyKey string      `json:"idempotency_key"`
	AmountMoney    squareMoney `json:"amount_money"`
}

type squareMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type squarePaymentResponse struct {
	Payment struct {
		ID string `json:"id"`
	} `json:"payment"`
	Errors []squareError `json:"errors"`
}

type squareError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

// Capture charges the payment instrument for the exact amount. The
// idempotency key must be unique per booking attempt, not per retry.
func (g *Gateway) Capture(ctx context.Context, req CaptureRequest) (CaptureResult, error) {
	if g.keys != nil {
		txn, ok, err := g.keys.Lookup(ctx, req.IdempotencyKey)
		if err == nil && ok {
			return CaptureResult{TransactionID: txn}, nil
		}
		// Recorder errors degrade to a normal gateway call; Square still
		// dedupes on the key.
	}

	body, err := json.Marshal(squarePaymentRequest{
		SourceID:       req.SourceID,
		IdempotencyKey: req.IdempotencyKey,
		AmountMoney:    squareMoney{Amount: req.Amount.Amount, Currency: req.Amount.Currency},
	})
	if err != nil {
		return CaptureResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v2/payments", bytes.NewReader(body))
	if err != nil {
		return CaptureResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	var out squarePaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && resp.StatusCode < 300 {
		return CaptureResult{}, fmt.Errorf("%w: decode response: %v", ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out.Payment.ID == "" {
			return CaptureResult{}, fmt.Errorf("%w: empty payment id", ErrGatewayUnavailable)
		}
		if g.keys != nil {
			_ = g.keys.Record(ctx, req.IdempotencyKey, out.Payment.ID)
		}
		return CaptureResult{TransactionID: out.Payment.ID}, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return CaptureResult{}, fmt.Errorf("%w: gateway status %d", ErrGatewayUnavailable, resp.StatusCode)
	case declined(out.Errors):
		return CaptureResult{}, fmt.Errorf("%w: %s", ErrDeclined, errorDetail(out.Errors))
	default:
		return CaptureResult{}, fmt.Errorf("payment capture failed (status %d): %s", resp.StatusCode, errorDetail(out.Errors))
	}
}

func declined(errs []squareError) bool {
	for _, e := range errs {
		if e.Category == "PAYMENT_METHOD_ERROR" {
			return true
		}
		switch e.Code {
		case "CARD_DECLINED", "INSUFFICIENT_FUNDS", "CVV_FAILURE", "CARD_EXPIRED":
			return true
		}
	}
	return false
}

func errorDetail(errs []squareError) string {
	if len(errs) == 0 {
		return "no detail"
	}
	return errs[0].Code
}
