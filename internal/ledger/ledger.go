// Package ledger owns payment transactions and the stepper protocol
// used to finalize them. A checkout opens a stepper per seller group,
// walks the settlement flow, and either commits or aborts it exactly
// once.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/miska12345/OpenMarket-sub000/internal/domain"
	"github.com/miska12345/OpenMarket-sub000/internal/repository"
)

// Stepper holds one open payment transaction. Exactly one of Commit or
// Abort must be called, and only once; a second finalization attempt
// returns an error rather than passing silently.
type Stepper interface {
	// TransactionID returns the id of the held transaction.
	TransactionID() string

	// Commit finalizes the payment with the given settlement verdict.
	Commit(ctx context.Context, settlement domain.SettlementStatus) error

	// Abort rolls the payment back. The payer is not charged.
	Abort(ctx context.Context) error
}

// Ledger manages buyer balances and payment transactions.
type Ledger interface {
	// Balance returns the buyer's available balance in the given
	// currency, in minor units.
	Balance(ctx context.Context, userID, currencyID string) (int64, error)

	// Open records a new OPEN transaction and returns a stepper holding
	// it.
	Open(ctx context.Context, tx *domain.Transaction) (Stepper, error)

	// Transaction returns the current state of a transaction.
	Transaction(ctx context.Context, id string) (*domain.Transaction, error)
}

type ledger struct {
	transactions repository.TransactionRepository
	accounts     repository.AccountRepository
	logger       *slog.Logger
}

// New creates a Ledger over the transaction and account stores.
func New(transactions repository.TransactionRepository, accounts repository.AccountRepository, logger *slog.Logger) Ledger {
	return &ledger{
		transactions: transactions,
		accounts:     accounts,
		logger:       logger,
	}
}

func (l *ledger) Balance(ctx context.Context, userID, currencyID string) (int64, error) {
	return l.accounts.GetBalance(ctx, userID, currencyID)
}

func (l *ledger) Transaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return l.transactions.GetByID(ctx, id)
}

func (l *ledger) Open(ctx context.Context, tx *domain.Transaction) (Stepper, error) {
	if tx.Amount <= 0 {
		return nil, fmt.Errorf("open transaction: amount must be positive, got %d", tx.Amount)
	}

	if err := l.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("open transaction: %w", err)
	}

	l.logger.InfoContext(ctx, "transaction opened",
		slog.String("transaction_id", tx.ID),
		slog.String("payer_id", tx.PayerID),
		slog.String("payee_org_id", tx.PayeeOrgID),
		slog.Int64("amount", tx.Amount),
	)

	return &stepper{ledger: l, tx: tx}, nil
}

// stepper finalizes its transaction at most once. The atomic flag
// catches in-process double finalization; the conditional UPDATE in the
// transaction store catches it across processes.
type stepper struct {
	ledger    *ledger
	tx        *domain.Transaction
	finalized atomic.Bool
}

func (s *stepper) TransactionID() string {
	return s.tx.ID
}

func (s *stepper) Commit(ctx context.Context, settlement domain.SettlementStatus) error {
	if !s.finalized.CompareAndSwap(false, true) {
		return fmt.Errorf("stepper for transaction %s already finalized", s.tx.ID)
	}

	if err := s.ledger.transactions.Finalize(ctx, s.tx.ID, domain.TransactionStatusCommitted, settlement); err != nil {
		return fmt.Errorf("commit transaction %s: %w", s.tx.ID, err)
	}

	// The payer's balance is captured only once the settlement is final.
	// A PENDING settlement commits the transaction record but leaves the
	// debit to the reconciliation path.
	if settlement == domain.SettlementConfirmed {
		if err := s.ledger.accounts.Debit(ctx, s.tx.PayerID, s.tx.CurrencyID, s.tx.Amount); err != nil {
			return fmt.Errorf("debit payer %s for transaction %s: %w", s.tx.PayerID, s.tx.ID, err)
		}
	}

	s.tx.Status = domain.TransactionStatusCommitted
	s.tx.Settlement = settlement

	s.ledger.logger.InfoContext(ctx, "transaction committed",
		slog.String("transaction_id", s.tx.ID),
		slog.String("settlement", string(settlement)),
	)

	return nil
}

func (s *stepper) Abort(ctx context.Context) error {
	if !s.finalized.CompareAndSwap(false, true) {
		return fmt.Errorf("stepper for transaction %s already finalized", s.tx.ID)
	}

	if err := s.ledger.transactions.Finalize(ctx, s.tx.ID, domain.TransactionStatusAborted, domain.SettlementFailed); err != nil {
		return fmt.Errorf("abort transaction %s: %w", s.tx.ID, err)
	}

	s.tx.Status = domain.TransactionStatusAborted
	s.tx.Settlement = domain.SettlementFailed

	s.ledger.logger.InfoContext(ctx, "transaction aborted",
		slog.String("transaction_id", s.tx.ID),
	)

	return nil
}
