package repository

import (
	"context"

	"gorm.io/gorm"
)

type ctxKey int

// txCtxKey carries the active *gorm.DB transaction through the context so
// repositories picked up inside RunInTx join the same transaction.
const txCtxKey ctxKey = 0

// TransactionManager runs a unit of work inside a single database
// transaction. Lifecycle transitions that touch more than one row (a payment
// plus the derived sale status, a quotation claim plus the new sale, an
// invoice plus the closing sale) go through RunInTx so they land atomically
// or not at all.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txCtxKey, tx))
	})
}

// GetDB returns the transaction from the context when one is active,
// otherwise the root handle.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txCtxKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}
