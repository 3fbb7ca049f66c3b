/**
 * @description
 * This file contains the transfer saga orchestrator, the core business logic
 * of the service. One call to ProcessTransfer runs the full sequence against
 * the external ledger and risk services: validate, risk check, funds check,
 * recipient check, debit, credit, compensating rollback on a failed credit,
 * and asynchronous outcome notification.
 *
 * There is no distributed transaction coordinator. Ordering is the only
 * protection: the risk check always precedes any ledger mutation, the debit
 * always precedes the credit, and compensation only ever reverses a completed
 * debit, at most once, for the exact debited amount.
 *
 * @dependencies
 * - context, fmt, log: Standard Go libraries.
 * - github.com/google/uuid: Transfer identifiers.
 * - internal/domain, internal/store: Domain models and the audit journal.
 */

package app

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/PovetkinRoman/bankApp-sub000/internal/domain"
	"github.com/PovetkinRoman/bankApp-sub000/internal/store"
	"github.com/PovetkinRoman/bankApp-sub000/pkg/riskclient"
)

// Failure reason tags used in metrics and the journal.
const (
	ReasonValidationFailed         = "validation_failed"
	ReasonBlockedBySecurity        = "blocked_by_security"
	ReasonLedgerUnavailable        = "ledger_unavailable"
	ReasonInsufficientFunds        = "insufficient_funds"
	ReasonRecipientAccountNotFound = "recipient_account_not_found"
	ReasonDebitFailed              = "debit_failed"
	ReasonCreditFailed             = "credit_failed"
	ReasonCompensationFailed       = "compensation_failed"
)

// LedgerClient is the contract the saga requires from the ledger service
// wrapper. Reads return errors (fail-closed); the mutating delta call reports
// failure through its outcome and never through an error.
type LedgerClient interface {
	GetBalance(ctx context.Context, party string, currency domain.Currency) (domain.AccountBalance, error)
	HasAccount(ctx context.Context, party string, currency domain.Currency) (bool, error)
	ApplyDelta(ctx context.Context, party string, currency domain.Currency, signedAmount int64, opTag string) domain.LedgerOperationOutcome
}

// RiskChecker evaluates one transfer attempt. Implementations are expected to
// be fail-open: a decision always comes back, never an error.
type RiskChecker interface {
	Check(ctx context.Context, req domain.RiskCheckRequest) domain.RiskDecision
}

// Notifier dispatches outcome notifications on a best-effort basis.
type Notifier interface {
	Notify(party, kind, title, message string, metadata map[string]string)
}

// Service orchestrates transfer sagas.
type Service struct {
	ledger   LedgerClient
	risk     RiskChecker
	notifier Notifier
	metrics  Recorder
	journal  store.Repository
}

// NewService creates a new transfer saga orchestrator.
func NewService(ledger LedgerClient, risk RiskChecker, notifier Notifier, metrics Recorder) *Service {
	if metrics == nil {
		metrics = NoopRecorder{}
	}
	return &Service{
		ledger:   ledger,
		risk:     risk,
		notifier: notifier,
		metrics:  metrics,
	}
}

// SetJournal enables audit journaling of transfer attempts. The journal is
// best-effort: write failures are logged and never change a transfer result.
func (s *Service) SetJournal(journal store.Repository) {
	s.journal = journal
}

// ProcessTransfer runs one transfer saga to a terminal result. Every failure
// before the debit is side-effect-free on the ledger; a failure of the credit
// is compensated by re-crediting the exact debited amount to the sender.
func (s *Service) ProcessTransfer(ctx context.Context, req domain.TransferRequest) domain.TransferResult {
	// 1. Structural validation. Nothing downstream is called for a malformed
	// request.
	if errs := validateRequest(req); len(errs) > 0 {
		log.Printf("level=warn component=saga state=%s outcome=reject from=%s to=%s errors=%d", domain.StateValidating, req.FromParty, req.ToParty, len(errs))
		s.metrics.RecordFailure(req.FromParty, req.ToParty, ReasonValidationFailed)
		return domain.TransferResult{
			Success: false,
			Message: "transfer rejected: invalid request",
			Errors:  errs,
		}
	}

	transferID := uuid.New()
	s.journalCreate(ctx, transferID, req)
	log.Printf("level=info component=saga transfer_id=%s state=%s from=%s to=%s amount_debited=%d currency=%s", transferID, domain.StateRiskChecking, req.FromParty, req.ToParty, req.AmountDebited, req.FromCurrency)

	// 2. Risk check. The client is fail-open, so a decision always arrives;
	// only an explicit block stops the transfer.
	decision := s.risk.Check(ctx, domain.RiskCheckRequest{
		FromParty:   req.FromParty,
		ToParty:     req.ToParty,
		Currency:    req.FromCurrency,
		Amount:      req.AmountDebited,
		Type:        riskclient.CheckTypeTransfer,
		Description: req.Description,
	})
	if decision.CheckID != "" {
		s.journalAttachCheckID(ctx, transferID, decision.CheckID)
	}
	if decision.Blocked {
		log.Printf("level=warn component=saga transfer_id=%s state=%s outcome=blocked risk_level=%s check_id=%s reason=%q", transferID, domain.StateRiskChecking, decision.RiskLevel, decision.CheckID, decision.Reason)
		s.notifier.Notify(req.FromParty, domain.NotificationTransferBlocked,
			"Transfer blocked",
			fmt.Sprintf("Your transfer to %s was blocked by a security check: %s", req.ToParty, decision.Reason),
			map[string]string{"risk_level": string(decision.RiskLevel), "check_id": decision.CheckID},
		)
		return s.fail(ctx, transferID, req, ReasonBlockedBySecurity,
			"transfer blocked by security check", []string{decision.Reason})
	}

	// 3. Funds availability. Ledger reads are fail-closed: if the ledger
	// cannot answer, the transfer is rejected.
	s.journalState(ctx, transferID, domain.StateBalanceChecking, nil)
	balance, err := s.ledger.GetBalance(ctx, req.FromParty, req.FromCurrency)
	if err != nil {
		log.Printf("level=error component=saga transfer_id=%s state=%s msg=\"sender balance lookup failed\" err=%v", transferID, domain.StateBalanceChecking, err)
		return s.fail(ctx, transferID, req, ReasonLedgerUnavailable,
			"transfer failed: ledger service unavailable", []string{"ledger service unavailable"})
	}

	// A missing source account reads as a negative sentinel; it gates the
	// same way as a short balance.
	available := balance.Amount
	if !balance.Exists {
		available = 0
	}
	if available < req.AmountDebited {
		return s.fail(ctx, transferID, req, ReasonInsufficientFunds,
			fmt.Sprintf("insufficient funds: available %d %s, requested %d %s", available, req.FromCurrency, req.AmountDebited, req.FromCurrency),
			[]string{ReasonInsufficientFunds})
	}

	// 4. Recipient existence in the destination currency, checked before any
	// mutation so a missing recipient never touches the sender.
	hasAccount, err := s.ledger.HasAccount(ctx, req.ToParty, req.ToCurrency)
	if err != nil {
		log.Printf("level=error component=saga transfer_id=%s state=%s msg=\"recipient account lookup failed\" err=%v", transferID, domain.StateBalanceChecking, err)
		return s.fail(ctx, transferID, req, ReasonLedgerUnavailable,
			"transfer failed: ledger service unavailable", []string{"ledger service unavailable"})
	}
	if !hasAccount {
		return s.fail(ctx, transferID, req, ReasonRecipientAccountNotFound,
			fmt.Sprintf("recipient %s has no %s account", req.ToParty, req.ToCurrency),
			[]string{ReasonRecipientAccountNotFound})
	}

	// 5. Debit the sender. A failure here needs no compensation: nothing has
	// succeeded yet.
	s.journalState(ctx, transferID, domain.StateDebiting, nil)
	debit := s.ledger.ApplyDelta(ctx, req.FromParty, req.FromCurrency, -req.AmountDebited, domain.OpTagTransfer)
	if !debit.Success {
		log.Printf("level=error component=saga transfer_id=%s state=%s msg=\"debit failed\" detail=%q", transferID, domain.StateDebiting, debit.Message)
		return s.fail(ctx, transferID, req, ReasonDebitFailed,
			"transfer failed: could not debit sender", []string{ReasonDebitFailed})
	}

	// 6. Credit the recipient. The debit has already been applied, so a
	// failure here must be compensated by reversing the exact debited amount.
	s.journalState(ctx, transferID, domain.StateCrediting, nil)
	credit := s.ledger.ApplyDelta(ctx, req.ToParty, req.ToCurrency, req.AmountCredited, domain.OpTagTransfer)
	if !credit.Success {
		log.Printf("level=error component=saga transfer_id=%s state=%s msg=\"credit failed; compensating debit\" detail=%q", transferID, domain.StateCrediting, credit.Message)
		s.journalState(ctx, transferID, domain.StateRollingBack, nil)

		rollback := s.ledger.ApplyDelta(ctx, req.FromParty, req.FromCurrency, req.AmountDebited, domain.OpTagRollback)
		if !rollback.Success {
			// The ledger is now inconsistent and there is no automatic retry.
			// Surface it loudly for operators; the caller still sees a plain
			// credit failure.
			log.Printf("level=error component=saga transfer_id=%s state=%s msg=\"COMPENSATION FAILED: sender %s short %d %s\" detail=%q", transferID, domain.StateRollingBack, req.FromParty, req.AmountDebited, req.FromCurrency, rollback.Message)
			s.metrics.RecordFailure(req.FromParty, req.ToParty, ReasonCompensationFailed)
			reason := ReasonCompensationFailed
			s.journalState(ctx, transferID, domain.StateFailed, &reason)
			s.metrics.RecordFailure(req.FromParty, req.ToParty, ReasonCreditFailed)
			return domain.TransferResult{
				Success: false,
				Message: "transfer failed: could not credit recipient",
				Errors:  []string{ReasonCreditFailed},
			}
		}
		return s.fail(ctx, transferID, req, ReasonCreditFailed,
			"transfer failed: could not credit recipient", []string{ReasonCreditFailed})
	}

	// 7. Terminal success: notify both parties asynchronously. Notification
	// failures never downgrade the result.
	s.journalState(ctx, transferID, domain.StateNotifying, nil)
	s.notifier.Notify(req.FromParty, domain.NotificationTransferSent,
		"Transfer sent",
		fmt.Sprintf("You sent %d %s to %s", req.AmountDebited, req.FromCurrency, req.ToParty),
		map[string]string{"transfer_id": transferID.String()},
	)
	s.notifier.Notify(req.ToParty, domain.NotificationTransferReceived,
		"Transfer received",
		fmt.Sprintf("You received %d %s from %s", req.AmountCredited, req.ToCurrency, req.FromParty),
		map[string]string{"transfer_id": transferID.String()},
	)

	s.metrics.RecordSuccess(req.FromParty, req.ToParty)
	s.journalState(ctx, transferID, domain.StateDone, nil)
	log.Printf("level=info component=saga transfer_id=%s state=%s outcome=success", transferID, domain.StateDone)

	return domain.TransferResult{
		Success:    true,
		Message:    "transfer completed",
		TransferID: transferID.String(),
	}
}

// GetTransfer returns the journal record of a past transfer attempt.
func (s *Service) GetTransfer(ctx context.Context, id uuid.UUID) (*domain.TransferRecord, error) {
	if s.journal == nil {
		return nil, store.ErrTransferNotFound
	}
	return s.journal.FindTransferByID(ctx, id)
}

// fail records a terminal failure in metrics and the journal and builds the
// result returned to the caller.
func (s *Service) fail(ctx context.Context, transferID uuid.UUID, req domain.TransferRequest, reason, message string, errs []string) domain.TransferResult {
	s.metrics.RecordFailure(req.FromParty, req.ToParty, reason)
	s.journalState(ctx, transferID, domain.StateFailed, &reason)
	log.Printf("level=warn component=saga transfer_id=%s state=%s outcome=failure reason=%s", transferID, domain.StateFailed, reason)
	return domain.TransferResult{
		Success: false,
		Message: message,
		Errors:  errs,
	}
}

func validateRequest(req domain.TransferRequest) []string {
	var errs []string
	if req.FromParty == "" {
		errs = append(errs, "sender is required")
	}
	if req.ToParty == "" {
		errs = append(errs, "recipient is required")
	}
	if req.FromParty != "" && req.FromParty == req.ToParty {
		errs = append(errs, "sender and recipient must differ")
	}
	if !req.FromCurrency.Valid() {
		errs = append(errs, fmt.Sprintf("unsupported source currency %q", req.FromCurrency))
	}
	if !req.ToCurrency.Valid() {
		errs = append(errs, fmt.Sprintf("unsupported destination currency %q", req.ToCurrency))
	}
	if req.AmountDebited <= 0 {
		errs = append(errs, "debit amount must be positive")
	}
	if req.AmountCredited <= 0 {
		errs = append(errs, "credit amount must be positive")
	}
	if req.FromCurrency.Valid() && req.FromCurrency == req.ToCurrency &&
		req.AmountDebited > 0 && req.AmountCredited > 0 &&
		req.AmountDebited != req.AmountCredited {
		errs = append(errs, "same-currency transfers must debit and credit the same amount")
	}
	return errs
}

func (s *Service) journalCreate(ctx context.Context, id uuid.UUID, req domain.TransferRequest) {
	if s.journal == nil {
		return
	}
	rec := &domain.TransferRecord{
		ID:             id,
		FromParty:      req.FromParty,
		ToParty:        req.ToParty,
		FromCurrency:   req.FromCurrency,
		ToCurrency:     req.ToCurrency,
		AmountDebited:  req.AmountDebited,
		AmountCredited: req.AmountCredited,
		Description:    req.Description,
		State:          domain.StateRiskChecking,
	}
	if err := s.journal.CreateTransferRecord(ctx, rec); err != nil {
		log.Printf("level=warn component=saga transfer_id=%s msg=\"journal create failed\" err=%v", id, err)
	}
}

func (s *Service) journalState(ctx context.Context, id uuid.UUID, state domain.SagaState, failureReason *string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.UpdateTransferState(ctx, id, state, failureReason); err != nil {
		log.Printf("level=warn component=saga transfer_id=%s msg=\"journal update failed\" state=%s err=%v", id, state, err)
	}
}

func (s *Service) journalAttachCheckID(ctx context.Context, id uuid.UUID, checkID string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.AttachRiskCheckID(ctx, id, checkID); err != nil {
		log.Printf("level=warn component=saga transfer_id=%s msg=\"journal risk check id update failed\" err=%v", id, err)
	}
}
