package repo

import (
	"context"
	"errors"
	"time"

	"github.com/richardliu001/auction-service/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetWallet reads a wallet without locking.
func (r *Repository) GetWallet(ctx context.Context, userID uint64) (*model.Wallet, error) {
	var w model.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// GetWalletForUpdate locks the user's wallet row.
func (r *Repository) GetWalletForUpdate(ctx context.Context, tx *gorm.DB, userID uint64) (*model.Wallet, error) {
	var w model.Wallet
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWallet inserts a wallet unless the user already has one. w.ID is only
// set when this call inserted the row.
func (r *Repository) CreateWallet(ctx context.Context, tx *gorm.DB, w *model.Wallet) error {
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(w).Error
}

// UpdateWallet writes a new balance guarded by the row version.
func (r *Repository) UpdateWallet(ctx context.Context, tx *gorm.DB, walletID uint64, newBalance decimal.Decimal, oldVersion uint64) error {
	if newBalance.IsNegative() {
		return ErrInsufficientFunds
	}
	res := tx.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("id = ? AND version = ?", walletID, oldVersion).
		Updates(map[string]interface{}{
			"balance":    newBalance,
			"version":    oldVersion + 1,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// CreateTransaction inserts a ledger record.
func (r *Repository) CreateTransaction(ctx context.Context, tx *gorm.DB, t *model.Transaction) error {
	return tx.WithContext(ctx).Create(t).Error
}

// TxExists checks duplicate by idem key.
func (r *Repository) TxExists(ctx context.Context, tx *gorm.DB, walletID uint64, idemKey string, txType model.TxType) (bool, *model.Transaction, error) {
	if idemKey == "" {
		return false, nil, nil
	}
	var t model.Transaction
	err := tx.WithContext(ctx).Where("wallet_id=? AND idempotency_key=? AND type=?", walletID, idemKey, txType).First(&t).Error
	if err == nil {
		return true, &t, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil, nil
	}
	return false, nil, err
}

// ListTransactions pages a wallet's ledger, newest first.
func (r *Repository) ListTransactions(ctx context.Context, walletID uint64, offset, limit int) ([]model.Transaction, int64, error) {
	var (
		txs   []model.Transaction
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("wallet_id = ?", walletID).
		Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at desc").Order("id desc").Offset(offset).Limit(limit).Find(&txs).Error
	return txs, total, err
}
