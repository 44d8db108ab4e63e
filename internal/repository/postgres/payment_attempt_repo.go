// internal/repository/postgres/payment_attempt_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tafiti-service/internal/domain/payment"
	xerrors "tafiti-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type PaymentAttemptRepository struct {
	db *DB
}

func NewPaymentAttemptRepository(db *DB) *PaymentAttemptRepository {
	return &PaymentAttemptRepository{db: db}
}

const attemptColumns = `
	id, tenant_id, user_id, survey_ref, idempotency_key, reference,
	amount, currency, status, gateway_name, gateway_txn_id, error_message,
	created_at, updated_at
`

func scanAttempt(row pgx.Row) (*payment.Attempt, error) {
	var a payment.Attempt
	err := row.Scan(
		&a.ID, &a.TenantID, &a.UserID, &a.SurveyRef, &a.IdempotencyKey, &a.Reference,
		&a.Amount, &a.Currency, &a.Status, &a.GatewayName, &a.GatewayTxnID, &a.ErrorMessage,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan payment attempt: %w", err)
	}
	return &a, nil
}

// Create inserts a PENDING attempt
func (r *PaymentAttemptRepository) Create(ctx context.Context, a *payment.Attempt) error {
	query := `
		INSERT INTO payment_attempts (
			tenant_id, user_id, survey_ref, idempotency_key, reference,
			amount, currency, status, gateway_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		a.TenantID, a.UserID, a.SurveyRef, a.IdempotencyKey, a.Reference,
		a.Amount, a.Currency, a.Status, a.GatewayName,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if isUniqueViolation(err) {
		return xerrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to create payment attempt: %w", err)
	}

	return nil
}

func (r *PaymentAttemptRepository) FindByID(ctx context.Context, tenantID, id int64) (*payment.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM payment_attempts WHERE tenant_id = $1 AND id = $2`
	return scanAttempt(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *PaymentAttemptRepository) FindByIdempotencyKey(ctx context.Context, tenantID int64, key string) (*payment.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM payment_attempts WHERE tenant_id = $1 AND idempotency_key = $2`
	return scanAttempt(r.db.QueryRow(ctx, query, tenantID, key))
}

func (r *PaymentAttemptRepository) FindByReference(ctx context.Context, tenantID int64, reference string) (*payment.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM payment_attempts WHERE tenant_id = $1 AND reference = $2`
	return scanAttempt(r.db.QueryRow(ctx, query, tenantID, reference))
}

// MarkProcessing records the gateway charge reference and moves the
// attempt PENDING -> PROCESSING.
func (r *PaymentAttemptRepository) MarkProcessing(ctx context.Context, id int64, gatewayTxnID string) error {
	query := `
		UPDATE payment_attempts
		SET status = $1, gateway_txn_id = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, payment.StatusProcessing, gatewayTxnID, id, payment.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark attempt processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrTerminalState
	}
	return nil
}

func (r *PaymentAttemptRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE payment_attempts
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3 AND status NOT IN ($4, $5)
	`
	tag, err := r.db.Exec(ctx, query,
		payment.StatusFailed, reason, id, payment.StatusSucceeded, payment.StatusFailed)
	if err != nil {
		return fmt.Errorf("failed to mark attempt failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrTerminalState
	}
	return nil
}

// ResetForRetry re-arms a FAILED attempt for a fresh gateway call with
// the same idempotency key.
func (r *PaymentAttemptRepository) ResetForRetry(ctx context.Context, id int64, gatewayTxnID string) error {
	query := `
		UPDATE payment_attempts
		SET status = $1, gateway_txn_id = $2, error_message = NULL, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, payment.StatusProcessing, gatewayTxnID, id, payment.StatusFailed)
	if err != nil {
		return fmt.Errorf("failed to reset attempt for retry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrTerminalState
	}
	return nil
}

func (r *PaymentAttemptRepository) FailByGatewayRef(ctx context.Context, chargeRef, reason string) error {
	query := `
		UPDATE payment_attempts
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE gateway_txn_id = $3 AND status NOT IN ($4, $5)
	`
	tag, err := r.db.Exec(ctx, query,
		payment.StatusFailed, reason, chargeRef, payment.StatusSucceeded, payment.StatusFailed)
	if err != nil {
		return fmt.Errorf("failed to fail attempt by gateway reference: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *PaymentAttemptRepository) ListProcessingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]payment.Attempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM payment_attempts
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, payment.StatusProcessing, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list processing attempts: %w", err)
	}
	defer rows.Close()

	var attempts []payment.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// Settle performs the webhook success path atomically: the attempt row
// is locked, the settlement insert deduplicates on gateway_txn_id, and
// the status transition is conditional on the row not being terminal.
// Two concurrent deliveries of the same webhook cannot both settle.
func (r *PaymentAttemptRepository) Settle(ctx context.Context, chargeRef string, s *payment.Settlement) (*payment.Attempt, bool, error) {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lockQuery := `SELECT ` + attemptColumns + ` FROM payment_attempts WHERE gateway_txn_id = $1 FOR UPDATE`
	attempt, err := scanAttempt(tx.QueryRow(ctx, lockQuery, chargeRef))
	if err != nil {
		return nil, false, err
	}

	// A terminal attempt never takes a new settlement. SUCCEEDED means a
	// prior delivery already settled; FAILED means a success arrived out
	// of order and the caller decides how to report it.
	if attempt.Status.IsTerminal() {
		return attempt, false, nil
	}

	insertQuery := `
		INSERT INTO settlement_transactions (
			payment_id, tenant_id, type, amount, currency, gateway_txn_id
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (gateway_txn_id) DO NOTHING
		RETURNING id, created_at
	`
	err = tx.QueryRow(ctx, insertQuery,
		attempt.ID, attempt.TenantID, s.Type, s.Amount, s.Currency, s.GatewayTxnID,
	).Scan(&s.ID, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Replayed webhook. The prior delivery already settled.
		return attempt, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert settlement: %w", err)
	}
	s.PaymentID = attempt.ID
	s.TenantID = attempt.TenantID

	updateQuery := `
		UPDATE payment_attempts
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status NOT IN ($3, $4)
	`
	if _, err := tx.Exec(ctx, updateQuery,
		payment.StatusSucceeded, attempt.ID, payment.StatusSucceeded, payment.StatusFailed); err != nil {
		return nil, false, fmt.Errorf("failed to transition attempt: %w", err)
	}
	attempt.Status = payment.StatusSucceeded

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit settlement: %w", err)
	}

	return attempt, true, nil
}
