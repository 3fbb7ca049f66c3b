/**
 * @description
 * This file provides the PostgreSQL implementation of the journal `Repository`
 * interface, backed by a pgx connection pool.
 *
 * Expected schema:
 *
 *   CREATE TABLE transfers (
 *       id              UUID PRIMARY KEY,
 *       from_party      TEXT        NOT NULL,
 *       to_party        TEXT        NOT NULL,
 *       from_currency   TEXT        NOT NULL,
 *       to_currency     TEXT        NOT NULL,
 *       amount_debited  BIGINT      NOT NULL,
 *       amount_credited BIGINT      NOT NULL,
 *       description     TEXT        NOT NULL DEFAULT '',
 *       state           TEXT        NOT NULL,
 *       failure_reason  TEXT,
 *       risk_check_id   TEXT,
 *       created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
 *       updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
 *   );
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/PovetkinRoman/bankApp-sub000/internal/domain"
)

// PostgresRepository is a concrete implementation of Repository for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateTransferRecord inserts the initial journal row for a transfer attempt.
func (r *PostgresRepository) CreateTransferRecord(ctx context.Context, rec *domain.TransferRecord) error {
	query := `
		INSERT INTO transfers (id, from_party, to_party, from_currency, to_currency,
			amount_debited, amount_credited, description, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.FromParty, rec.ToParty, string(rec.FromCurrency), string(rec.ToCurrency),
		rec.AmountDebited, rec.AmountCredited, rec.Description, string(rec.State),
	)
	return err
}

// UpdateTransferState records a saga state transition, optionally with the
// failure reason at a terminal state.
func (r *PostgresRepository) UpdateTransferState(ctx context.Context, id uuid.UUID, state domain.SagaState, failureReason *string) error {
	query := `
		UPDATE transfers
		SET state = $2, failure_reason = COALESCE($3, failure_reason), updated_at = now()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, string(state), failureReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransferNotFound
	}
	return nil
}

// AttachRiskCheckID stores the risk service's correlation id on the record.
func (r *PostgresRepository) AttachRiskCheckID(ctx context.Context, id uuid.UUID, checkID string) error {
	query := `UPDATE transfers SET risk_check_id = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, checkID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransferNotFound
	}
	return nil
}

// FindTransferByID fetches one journal row.
func (r *PostgresRepository) FindTransferByID(ctx context.Context, id uuid.UUID) (*domain.TransferRecord, error) {
	var rec domain.TransferRecord
	var fromCurrency, toCurrency, state string
	query := `
		SELECT id, from_party, to_party, from_currency, to_currency,
			amount_debited, amount_credited, description, state,
			failure_reason, risk_check_id, created_at, updated_at
		FROM transfers
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.FromParty, &rec.ToParty, &fromCurrency, &toCurrency,
		&rec.AmountDebited, &rec.AmountCredited, &rec.Description, &state,
		&rec.FailureReason, &rec.RiskCheckID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}
	rec.FromCurrency = domain.Currency(fromCurrency)
	rec.ToCurrency = domain.Currency(toCurrency)
	rec.State = domain.SagaState(state)
	return &rec, nil
}
