package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/PovetkinRoman/bankApp-sub000/internal/app"
	"github.com/PovetkinRoman/bankApp-sub000/internal/domain"
)

type ledgerStub struct {
	balances map[string]int64
	deltas   []struct {
		party    string
		currency domain.Currency
		amount   int64
	}
}

func (l *ledgerStub) GetBalance(ctx context.Context, party string, currency domain.Currency) (domain.AccountBalance, error) {
	amount, ok := l.balances[party+"/"+string(currency)]
	return domain.AccountBalance{Party: party, Currency: currency, Amount: amount, Exists: ok}, nil
}

func (l *ledgerStub) HasAccount(ctx context.Context, party string, currency domain.Currency) (bool, error) {
	_, ok := l.balances[party+"/"+string(currency)]
	return ok, nil
}

func (l *ledgerStub) ApplyDelta(ctx context.Context, party string, currency domain.Currency, signedAmount int64, opTag string) domain.LedgerOperationOutcome {
	l.deltas = append(l.deltas, struct {
		party    string
		currency domain.Currency
		amount   int64
	}{party, currency, signedAmount})
	return domain.LedgerOperationOutcome{Success: true}
}

type riskStub struct{}

func (riskStub) Check(ctx context.Context, req domain.RiskCheckRequest) domain.RiskDecision {
	return domain.RiskDecision{Blocked: false, RiskLevel: domain.RiskLevelLow}
}

type notifierStub struct{}

func (notifierStub) Notify(party, kind, title, message string, metadata map[string]string) {}

func newTestRouter(ledger *ledgerStub) http.Handler {
	service := app.NewService(ledger, riskStub{}, notifierStub{}, app.NoopRecorder{})
	return TransferRoutes(NewTransferHandlers(service))
}

func TestTransferHandler_Success(t *testing.T) {
	ledger := &ledgerStub{balances: map[string]int64{
		"alice/RUB": 500,
		"bob/RUB":   0,
	}}
	router := newTestRouter(ledger)

	body := `{"from_party":"alice","to_party":"bob","currency":"RUB","amount":100,"description":"dinner"}`
	req := httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result domain.TransferResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Success || result.TransferID == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(ledger.deltas) != 2 {
		t.Fatalf("expected a debit and a credit, got %d deltas", len(ledger.deltas))
	}
}

func TestTransferHandler_CrossCurrencyShape(t *testing.T) {
	ledger := &ledgerStub{balances: map[string]int64{
		"alice/USD": 1000,
		"bob/RUB":   0,
	}}
	router := newTestRouter(ledger)

	body := `{"from_party":"alice","to_party":"bob","from_currency":"USD","to_currency":"RUB","amount_from":10,"amount_to":950}`
	req := httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(ledger.deltas) != 2 {
		t.Fatalf("expected two deltas, got %d", len(ledger.deltas))
	}
	if ledger.deltas[0].currency != domain.CurrencyUSD || ledger.deltas[0].amount != -10 {
		t.Fatalf("unexpected debit leg: %+v", ledger.deltas[0])
	}
	if ledger.deltas[1].currency != domain.CurrencyRUB || ledger.deltas[1].amount != 950 {
		t.Fatalf("unexpected credit leg: %+v", ledger.deltas[1])
	}
}

func TestTransferHandler_BusinessFailureIs400(t *testing.T) {
	ledger := &ledgerStub{balances: map[string]int64{
		"alice/RUB": 50,
		"bob/RUB":   0,
	}}
	router := newTestRouter(ledger)

	body := `{"from_party":"alice","to_party":"bob","currency":"RUB","amount":100}`
	req := httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var result domain.TransferResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Success {
		t.Fatal("expected a failure result")
	}
	if !strings.Contains(result.Message, "50") {
		t.Fatalf("expected the available amount in the message, got %q", result.Message)
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected granular error strings")
	}
}

func TestTransferHandler_InvalidJSON(t *testing.T) {
	router := newTestRouter(&ledgerStub{balances: map[string]int64{}})

	req := httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	router := newTestRouter(&ledgerStub{balances: map[string]int64{}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "service is running" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestGetTransferHandler_NotFound(t *testing.T) {
	router := newTestRouter(&ledgerStub{balances: map[string]int64{}})

	req := httptest.NewRequest(http.MethodGet, "/transfers/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetTransferHandler_InvalidID(t *testing.T) {
	router := newTestRouter(&ledgerStub{balances: map[string]int64{}})

	req := httptest.NewRequest(http.MethodGet, "/transfers/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

type limiterStub struct {
	count      int
	retryAfter int
	err        error
}

func (l *limiterStub) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	return l.count, l.retryAfter, l.err
}

func TestTransferHandler_RateLimited(t *testing.T) {
	ledger := &ledgerStub{balances: map[string]int64{
		"alice/RUB": 500,
		"bob/RUB":   0,
	}}
	service := app.NewService(ledger, riskStub{}, notifierStub{}, app.NoopRecorder{})
	handlers := NewTransferHandlers(service)
	handlers.SetRateLimiter(&limiterStub{count: 31, retryAfter: 42}, 30)
	router := TransferRoutes(handlers)

	body := `{"from_party":"alice","to_party":"bob","currency":"RUB","amount":100}`
	req := httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "42" {
		t.Fatalf("expected Retry-After header, got %q", rec.Header().Get("Retry-After"))
	}
	if len(ledger.deltas) != 0 {
		t.Fatal("a rate-limited request must not reach the ledger")
	}
}

func TestTransferHandler_LimiterErrorFailsOpen(t *testing.T) {
	ledger := &ledgerStub{balances: map[string]int64{
		"alice/RUB": 500,
		"bob/RUB":   0,
	}}
	service := app.NewService(ledger, riskStub{}, notifierStub{}, app.NoopRecorder{})
	handlers := NewTransferHandlers(service)
	handlers.SetRateLimiter(&limiterStub{err: context.DeadlineExceeded}, 30)
	router := TransferRoutes(handlers)

	body := `{"from_party":"alice","to_party":"bob","currency":"RUB","amount":100}`
	req := httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("a broken limiter must not stop transfers, got %d", rec.Code)
	}
}
