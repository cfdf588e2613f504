package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

// Ledger appends one record per realized exit. Writes are retried with
// bounded exponential backoff; an exhausted write logs the full payload so
// it can be replayed manually. A lost record must never disappear silently.
type Ledger struct {
	repo     domain.TransactionRepository
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

func NewLedger(repo domain.TransactionRepository, attempts int, backoff time.Duration, logger *zap.Logger) *Ledger {
	if attempts < 1 {
		attempts = 1
	}
	return &Ledger{repo: repo, attempts: attempts, backoff: backoff, logger: logger}
}

// Record persists the transaction, reporting whether the write landed.
func (l *Ledger) Record(ctx context.Context, tx *domain.Transaction) bool {
	err := Retry(ctx, l.attempts, l.backoff, nil, func() error {
		return l.repo.InsertTransactions(ctx, []*domain.Transaction{tx})
	})
	if err != nil {
		l.logger.Error("transaction write failed after retries, replay manually",
			zap.String("transaction_id", tx.TransactionID),
			zap.Any("transaction", tx),
			zap.Error(err))
		return false
	}

	l.logger.Info("transaction recorded",
		zap.String("transaction_id", tx.TransactionID),
		zap.String("ticker", tx.Ticker),
		zap.String("side", string(tx.Side)))
	return true
}
