/**
 * @description
 * This file contains the HTTP handlers for the transfer-service's API. The
 * handlers parse inbound requests, apply per-sender rate limiting, call the
 * saga orchestrator, and shape the response. Business failures come back as
 * HTTP 400 with the same body shape as a success so clients parse one format.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5, github.com/google/uuid: Routing and ids.
 * - internal/app, internal/domain, internal/store: Service logic and models.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/PovetkinRoman/bankApp-sub000/internal/app"
	"github.com/PovetkinRoman/bankApp-sub000/internal/domain"
	"github.com/PovetkinRoman/bankApp-sub000/internal/store"
)

// TransferHandlers holds the saga orchestrator and the optional rate limiter.
type TransferHandlers struct {
	service        *app.Service
	limiter        app.RateLimiter
	limitPerMinute int
}

// NewTransferHandlers creates a new instance of TransferHandlers.
func NewTransferHandlers(service *app.Service) *TransferHandlers {
	return &TransferHandlers{service: service}
}

// SetRateLimiter enables per-sender transfer rate limiting.
func (h *TransferHandlers) SetRateLimiter(limiter app.RateLimiter, perMinute int) {
	h.limiter = limiter
	h.limitPerMinute = perMinute
}

// transferRequestBody accepts both the single-currency shape
// ({currency, amount}) and the cross-currency shape
// ({from_currency, to_currency, amount_from, amount_to}).
type transferRequestBody struct {
	FromParty    string `json:"from_party"`
	ToParty      string `json:"to_party"`
	Currency     string `json:"currency"`
	Amount       int64  `json:"amount"`
	FromCurrency string `json:"from_currency"`
	ToCurrency   string `json:"to_currency"`
	AmountFrom   int64  `json:"amount_from"`
	AmountTo     int64  `json:"amount_to"`
	Description  string `json:"description"`
}

func (b transferRequestBody) toDomain() domain.TransferRequest {
	req := domain.TransferRequest{
		FromParty:   strings.TrimSpace(b.FromParty),
		ToParty:     strings.TrimSpace(b.ToParty),
		Description: strings.TrimSpace(b.Description),
	}
	if b.Currency != "" {
		req.FromCurrency = domain.Currency(b.Currency)
		req.ToCurrency = domain.Currency(b.Currency)
		req.AmountDebited = b.Amount
		req.AmountCredited = b.Amount
		return req
	}
	req.FromCurrency = domain.Currency(b.FromCurrency)
	req.ToCurrency = domain.Currency(b.ToCurrency)
	req.AmountDebited = b.AmountFrom
	req.AmountCredited = b.AmountTo
	return req
}

// transferRecordResponse is the shape of a journal row on the read API.
type transferRecordResponse struct {
	ID             string  `json:"id"`
	FromParty      string  `json:"from_party"`
	ToParty        string  `json:"to_party"`
	FromCurrency   string  `json:"from_currency"`
	ToCurrency     string  `json:"to_currency"`
	AmountDebited  int64   `json:"amount_debited"`
	AmountCredited int64   `json:"amount_credited"`
	Description    string  `json:"description,omitempty"`
	State          string  `json:"state"`
	FailureReason  *string `json:"failure_reason,omitempty"`
	RiskCheckID    *string `json:"risk_check_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// TransferHandler handles POST /transfer.
func (h *TransferHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var body transferRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("level=warn component=api endpoint=transfer outcome=reject reason=invalid_json err=%v", err)
		writeJSON(w, http.StatusBadRequest, domain.TransferResult{
			Success: false,
			Message: "transfer rejected: invalid request",
			Errors:  []string{"request body is not valid JSON"},
		})
		return
	}

	if !h.consumeRateLimit(w, r, strings.TrimSpace(body.FromParty)) {
		return
	}

	result := h.service.ProcessTransfer(r.Context(), body.toDomain())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

// GetTransferHandler handles GET /transfers/{id}.
func (h *TransferHandlers) GetTransferHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid transfer id", http.StatusBadRequest)
		return
	}

	rec, err := h.service.GetTransfer(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrTransferNotFound) {
			http.Error(w, "transfer not found", http.StatusNotFound)
			return
		}
		log.Printf("level=error component=api endpoint=get_transfer transfer_id=%s err=%v", id, err)
		http.Error(w, "failed to load transfer", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, transferRecordResponse{
		ID:             rec.ID.String(),
		FromParty:      rec.FromParty,
		ToParty:        rec.ToParty,
		FromCurrency:   string(rec.FromCurrency),
		ToCurrency:     string(rec.ToCurrency),
		AmountDebited:  rec.AmountDebited,
		AmountCredited: rec.AmountCredited,
		Description:    rec.Description,
		State:          string(rec.State),
		FailureReason:  rec.FailureReason,
		RiskCheckID:    rec.RiskCheckID,
		CreatedAt:      rec.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      rec.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// consumeRateLimit enforces the per-sender transfer limit when a limiter is
// configured. Limiter errors fail open: a broken Redis must not stop money
// movement.
func (h *TransferHandlers) consumeRateLimit(w http.ResponseWriter, r *http.Request, sender string) bool {
	if h.limiter == nil || h.limitPerMinute <= 0 || sender == "" {
		return true
	}

	count, retryAfter, err := h.limiter.ConsumeRateLimit(r.Context(), "transfer", sender, h.limitPerMinute, time.Minute)
	if err != nil {
		log.Printf("level=warn component=api endpoint=transfer msg=\"rate limiter unavailable; allowing request\" err=%v", err)
		return true
	}
	if count > h.limitPerMinute {
		log.Printf("level=warn component=api endpoint=transfer outcome=reject reason=rate_limited sender=%s count=%d", sender, count)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeJSON(w, http.StatusTooManyRequests, domain.TransferResult{
			Success: false,
			Message: "too many transfer attempts, try again later",
			Errors:  []string{"rate_limited"},
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}
