package service

import (
	"context"
	"encoding/json"

	"github.com/richardliu001/auction-service/internal/model"
	"github.com/richardliu001/auction-service/internal/repo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items   []T   `json:"data"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

func normalizePage(page, perPage int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage, (page - 1) * perPage
}

// moveFunds applies delta to a wallet locked by tx and appends the ledger row.
// On success w reflects the new balance and version.
func moveFunds(ctx context.Context, r repo.RepositoryInterface, tx *gorm.DB, w *model.Wallet, delta decimal.Decimal, entry model.Transaction) (*model.Transaction, error) {
	newBal := w.Balance.Add(delta)
	if newBal.IsNegative() {
		return nil, ErrInsufficientFunds
	}
	if err := r.UpdateWallet(ctx, tx, w.ID, newBal, w.Version); err != nil {
		return nil, err
	}
	entry.UserID = w.UserID
	entry.WalletID = w.ID
	entry.Amount = delta.Abs()
	entry.BalanceBefore = w.Balance
	entry.BalanceAfter = newBal
	entry.Status = model.TxStatusSuccess
	if err := r.CreateTransaction(ctx, tx, &entry); err != nil {
		return nil, err
	}
	w.Balance = newBal
	w.Version++
	return &entry, nil
}

func outboxEvent(aggregate string, id uint64, eventType string, payload map[string]interface{}) *model.OutboxEvent {
	body, _ := json.Marshal(payload)
	return &model.OutboxEvent{
		Aggregate: aggregate, AggregateID: id, EventType: eventType, Payload: string(body),
	}
}
