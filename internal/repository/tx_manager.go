package repository

import (
	"context"

	"gorm.io/gorm"
)

type ctxKey int

const txCtxKey ctxKey = iota

// TxManager runs a function inside a database transaction. The transaction
// handle travels in the context so every repository call made from fn joins
// the same transaction; a returned error rolls the whole sequence back.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type txManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &txManager{db: db}
}

func (m *txManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txCtxKey, tx))
	})
}

// GetDB returns the transaction handle carried by ctx, or rootDB when the
// caller is not inside RunInTx.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txCtxKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}
