// Package credits implements the per-account scan credit ledger.
// Balances are derived from an append-only ledger; debits and refunds
// are idempotent so a retried scan request never double-charges.
package credits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrInsufficientCredits is returned when an account's balance cannot
// cover a requested debit.
var ErrInsufficientCredits = errors.New("insufficient credits")

const (
	reasonDebit  = "scan_debit"
	reasonRefund = "scan_refund"
	reasonGrant  = "grant"
)

// Ledger records credit movements in the credit_ledger table.
type Ledger struct {
	db *sql.DB
}

// NewLedger creates a ledger over an open database connection.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Balance returns the account's current credit balance.
func (l *Ledger) Balance(ctx context.Context, accountID string) (int, error) {
	var balance int
	err := l.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(delta), 0) FROM credit_ledger WHERE account_id = ?",
		accountID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to query balance: %w", err)
	}
	return balance, nil
}

// Debit removes amount credits from the account. The balance check and
// the ledger insert run in one transaction with the account's rows
// locked, so concurrent debits cannot overdraw. A repeated
// idempotencyKey is a no-op.
func (l *Ledger) Debit(ctx context.Context, accountID string, amount int, idempotencyKey string) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var balance int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(delta), 0) FROM credit_ledger WHERE account_id = ? FOR UPDATE",
		accountID).Scan(&balance)
	if err != nil {
		return fmt.Errorf("failed to query balance: %w", err)
	}
	if balance < amount {
		return ErrInsufficientCredits
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO credit_ledger (account_id, delta, reason, idempotency_key) VALUES (?, ?, ?, ?)",
		accountID, -amount, reasonDebit, idempotencyKey)
	if err != nil {
		if isDuplicateKey(err) {
			return nil
		}
		return fmt.Errorf("failed to record debit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit debit: %w", err)
	}
	return nil
}

// Refund returns amount credits to the account, typically after a scan
// errored out post-debit. A repeated idempotencyKey is a no-op.
func (l *Ledger) Refund(ctx context.Context, accountID string, amount int, idempotencyKey string) error {
	if amount <= 0 {
		return fmt.Errorf("refund amount must be positive, got %d", amount)
	}
	return l.insert(ctx, accountID, amount, reasonRefund, idempotencyKey)
}

// Grant adds purchased or promotional credits to the account.
func (l *Ledger) Grant(ctx context.Context, accountID string, amount int, idempotencyKey string) error {
	if amount <= 0 {
		return fmt.Errorf("grant amount must be positive, got %d", amount)
	}
	return l.insert(ctx, accountID, amount, reasonGrant, idempotencyKey)
}

func (l *Ledger) insert(ctx context.Context, accountID string, delta int, reason, idempotencyKey string) error {
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO credit_ledger (account_id, delta, reason, idempotency_key) VALUES (?, ?, ?, ?)",
		accountID, delta, reason, idempotencyKey)
	if err != nil {
		if isDuplicateKey(err) {
			return nil
		}
		return fmt.Errorf("failed to record %s: %w", reason, err)
	}
	return nil
}

// isDuplicateKey reports whether err is a MySQL duplicate-key error on
// the idempotency index.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
