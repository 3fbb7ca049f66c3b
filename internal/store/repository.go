/**
 * @description
 * This file defines the `Repository` interface for the transfer journal: the
 * audit trail of transfer attempts and their terminal states. The interface
 * decouples the saga from PostgreSQL so tests can substitute stubs.
 *
 * The journal is audit-only. It is not recoverable saga state: a crash
 * mid-transfer leaves the ledger wherever the last completed step left it,
 * and the journal's last written state is what operators use to find and
 * remediate such cases (failed compensations in particular).
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For record identifiers.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/PovetkinRoman/bankApp-sub000/internal/domain"
)

var ErrTransferNotFound = errors.New("transfer not found")

// Repository defines the set of methods for interacting with the journal.
type Repository interface {
	CreateTransferRecord(ctx context.Context, rec *domain.TransferRecord) error
	UpdateTransferState(ctx context.Context, id uuid.UUID, state domain.SagaState, failureReason *string) error
	AttachRiskCheckID(ctx context.Context, id uuid.UUID, checkID string) error
	FindTransferByID(ctx context.Context, id uuid.UUID) (*domain.TransferRecord, error)
}
