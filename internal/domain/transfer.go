/**
 * @description
 * This file defines the core domain models for the transfer saga: the immutable
 * transfer request, the terminal transfer result returned to callers, and the
 * request-scoped saga state used for stage-tagged logging and journaling.
 *
 * @dependencies
 * - github.com/google/uuid: For transfer identifiers.
 * - time: Standard Go library.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Currency is a supported ledger currency code.
type Currency string

const (
	CurrencyRUB Currency = "RUB"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyCNY Currency = "CNY"
)

// Valid reports whether the currency is one of the supported codes.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyRUB, CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyCNY:
		return true
	}
	return false
}

// TransferRequest describes one two-party transfer. Amounts are in minor
// units (kopecks, cents). For same-currency transfers AmountDebited must
// equal AmountCredited; cross-currency transfers carry both legs explicitly
// because rate computation happens outside this service.
type TransferRequest struct {
	FromParty      string
	ToParty        string
	FromCurrency   Currency
	ToCurrency     Currency
	AmountDebited  int64
	AmountCredited int64
	Description    string
}

// TransferResult is the terminal outcome of one saga run. TransferID is set
// only on success and is used for audit correlation, not idempotent replay.
type TransferResult struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	TransferID string   `json:"transfer_id,omitempty"`
}

// SagaState is the orchestrator's position in the transfer sequence. It is
// request-scoped and never persisted as recoverable state; the journal keeps
// the last observed state per transfer for audit only.
type SagaState string

const (
	StateValidating      SagaState = "validating"
	StateRiskChecking    SagaState = "risk_checking"
	StateBalanceChecking SagaState = "balance_checking"
	StateDebiting        SagaState = "debiting"
	StateCrediting       SagaState = "crediting"
	StateRollingBack     SagaState = "rolling_back"
	StateNotifying       SagaState = "notifying"
	StateDone            SagaState = "done"
	StateFailed          SagaState = "failed"
)

// TransferRecord is the audit journal row for one transfer attempt.
type TransferRecord struct {
	ID             uuid.UUID
	FromParty      string
	ToParty        string
	FromCurrency   Currency
	ToCurrency     Currency
	AmountDebited  int64
	AmountCredited int64
	Description    string
	State          SagaState
	FailureReason  *string
	RiskCheckID    *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
