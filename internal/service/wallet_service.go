package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/richardliu001/auction-service/internal/metrics"
	"github.com/richardliu001/auction-service/internal/model"
	"github.com/richardliu001/auction-service/internal/money"
	"github.com/richardliu001/auction-service/internal/repo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WalletService glues business logic and repository.
type WalletService struct {
	repo     repo.RepositoryInterface
	conv     money.Converter
	currency string
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger
}

// NewWalletService returns WalletService.
func NewWalletService(r repo.RepositoryInterface, conv money.Converter, currency string, m *metrics.Metrics, logger *zap.SugaredLogger) *WalletService {
	return &WalletService{repo: r, conv: conv, currency: currency, metrics: m, log: logger}
}

// WalletSummary is what a user sees of their wallet.
type WalletSummary struct {
	Balance  decimal.Decimal `json:"balance"`
	Points   decimal.Decimal `json:"balance_points"`
	Currency string          `json:"currency"`
}

// TopUp credits points converted to currency; auto-creates the wallet.
// A repeated idempotency key credits nothing and returns the current balance.
func (s *WalletService) TopUp(ctx context.Context, userID uint64, points decimal.Decimal, key string) (decimal.Decimal, error) {
	if !points.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	amt := s.conv.PointsToCurrency(points)
	var (
		finalBal decimal.Decimal
		credited bool
	)
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := s.repo.GetWalletForUpdate(ctx, tx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// a concurrent first top-up may insert the row first; lock whichever row won
			if err := s.repo.CreateWallet(ctx, tx, &model.Wallet{UserID: userID, Balance: decimal.Zero, Currency: s.currency}); err != nil {
				return err
			}
			w, err = s.repo.GetWalletForUpdate(ctx, tx, userID)
		}
		if err != nil {
			return err
		}

		existed, _, err := s.repo.TxExists(ctx, tx, w.ID, key, model.TxTopUp)
		if err != nil {
			return err
		}
		if existed {
			finalBal = w.Balance
			return nil
		}

		entry := model.Transaction{
			Type:        model.TxTopUp,
			Description: fmt.Sprintf("Wallet top-up: %s points (%s %s)", points.String(), amt.StringFixed(2), w.Currency),
		}
		if key != "" {
			entry.IdempotencyKey = &key
		}
		if _, err := moveFunds(ctx, s.repo, tx, w, amt, entry); err != nil {
			return err
		}
		evt := outboxEvent("Wallet", w.ID, model.EventWalletToppedUp, map[string]interface{}{
			"user_id": userID, "amount": amt, "points": points, "balance": w.Balance,
		})
		if err := s.repo.CreateOutboxEvent(ctx, tx, evt); err != nil {
			return err
		}
		finalBal, credited = w.Balance, true
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	if !credited {
		return finalBal, nil
	}
	s.metrics.Ledger(string(model.TxTopUp))
	if err := s.repo.CacheBalance(ctx, userID, finalBal); err != nil {
		s.log.Warnw("cache balance", "user_id", userID, "err", err)
	}
	return finalBal, nil
}

// GetBalance returns current wallet balance.
func (s *WalletService) GetBalance(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	bal, err := s.repo.GetCachedBalance(ctx, userID)
	if err == nil {
		return bal, nil
	}
	w, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrWalletNotFound
		}
		return decimal.Zero, err
	}
	_ = s.repo.CacheBalance(ctx, userID, w.Balance)
	return w.Balance, nil
}

// Summary reports balance in currency and points. A user without a wallet sees zero.
func (s *WalletService) Summary(ctx context.Context, userID uint64) (WalletSummary, error) {
	bal, err := s.GetBalance(ctx, userID)
	if err != nil && !errors.Is(err, ErrWalletNotFound) {
		return WalletSummary{}, err
	}
	return s.SummaryOf(bal), nil
}

// SummaryOf presents a known balance in currency and points.
func (s *WalletService) SummaryOf(bal decimal.Decimal) WalletSummary {
	return WalletSummary{
		Balance:  bal,
		Points:   s.conv.CurrencyToPoints(bal),
		Currency: s.currency,
	}
}

// GetHistory pages the user's ledger, newest first.
func (s *WalletService) GetHistory(ctx context.Context, userID uint64, page, perPage int) (Page[model.Transaction], error) {
	page, perPage, offset := normalizePage(page, perPage)
	out := Page[model.Transaction]{Items: []model.Transaction{}, Page: page, PerPage: perPage}
	w, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, nil
		}
		return out, err
	}
	txs, total, err := s.repo.ListTransactions(ctx, w.ID, offset, perPage)
	if err != nil {
		return out, err
	}
	out.Items, out.Total = txs, total
	return out, nil
}
