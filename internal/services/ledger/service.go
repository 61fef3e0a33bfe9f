// Package ledger implements the balance mutation primitive. Every change to a
// personal wallet or a group sub-balance goes through ApplyDelta (or
// ApplyWithin when composed into a larger transaction), which re-reads the
// balance under a row lock, enforces the funds and capacity rules, writes the
// immutable log row and persists the new balance, all in one transaction.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"catalyst/internal/models"
	"catalyst/internal/repositories"

	"github.com/shopspring/decimal"
)

// Delta describes one balance mutation.
type Delta struct {
	UserID uint
	// Amount is signed: positive credits, negative debits.
	Amount decimal.Decimal
	// Reason becomes the ledger row's PaymentType tag.
	Reason string

	// GroupID targets a group sub-balance instead of the personal wallet.
	GroupID        *uint
	PendingGrantID *uint
	InvestmentName string
	Reference      string

	// AdminOverride permits driving a personal wallet negative. It has no
	// effect on group sub-balances, which never go negative.
	AdminOverride bool
}

type Service interface {
	// ApplyDelta runs the mutation in its own transaction, retrying once on
	// a serialization conflict before surfacing ErrConcurrencyConflict.
	ApplyDelta(d Delta) (*models.BalanceChangeLog, error)
	// ApplyWithin runs the mutation inside the caller's transaction.
	ApplyWithin(tx repositories.DataStore, d Delta) (*models.BalanceChangeLog, error)

	HistoryForUser(userID uint, limit, offset int) ([]models.BalanceChangeLog, int64, error)
	// AvailableBalance is the personal wallet plus all group sub-balances.
	AvailableBalance(userID uint) (decimal.Decimal, error)
}

type service struct {
	store repositories.DataStore
}

func NewService(store repositories.DataStore) Service {
	if store == nil {
		panic("store is required")
	}
	return &service{store: store}
}

func (s *service) ApplyDelta(d Delta) (*models.BalanceChangeLog, error) {
	var entry *models.BalanceChangeLog
	run := func() error {
		return s.store.InTransaction(func(tx repositories.DataStore) error {
			var err error
			entry, err = s.ApplyWithin(tx, d)
			return err
		})
	}

	err := run()
	if err != nil && repositories.IsSerializationFailure(err) {
		err = run()
		if err != nil && repositories.IsSerializationFailure(err) {
			return nil, ErrConcurrencyConflict
		}
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ApplyWithin(tx repositories.DataStore, d Delta) (*models.BalanceChangeLog, error) {
	if d.Amount.IsZero() {
		return nil, ErrInvalidDelta
	}
	if d.GroupID != nil {
		return s.applyGroupDelta(tx, d)
	}
	return s.applyWalletDelta(tx, d)
}

func (s *service) applyWalletDelta(tx repositories.DataStore, d Delta) (*models.BalanceChangeLog, error) {
	user, err := tx.GetUserForUpdate(d.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	oldValue := user.AccountBalance
	newValue := oldValue.Add(d.Amount)
	if newValue.IsNegative() && !d.AdminOverride {
		return nil, ErrInsufficientFunds
	}

	user.AccountBalance = newValue
	if err := tx.SaveUser(user); err != nil {
		return nil, err
	}

	entry := &models.BalanceChangeLog{
		UserID:         user.ID,
		Username:       user.Username,
		OldValue:       oldValue,
		NewValue:       newValue,
		PaymentType:    d.Reason,
		PendingGrantID: d.PendingGrantID,
		InvestmentName: d.InvestmentName,
		Reference:      d.Reference,
	}
	if err := tx.AppendLedger(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) applyGroupDelta(tx repositories.DataStore, d Delta) (*models.BalanceChangeLog, error) {
	user, err := tx.GetUserByID(d.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	gb, err := tx.GetGroupBalanceForUpdate(d.UserID, *d.GroupID)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrGroupBalanceNotFound) && d.Amount.IsPositive():
		// First allocation into this pool for this member.
		gb = &models.GroupAccountBalance{
			UserID:  d.UserID,
			GroupID: *d.GroupID,
			Balance: decimal.Zero,
		}
		if err := tx.CreateGroupBalance(gb); err != nil {
			return nil, err
		}
	case errors.Is(err, repositories.ErrGroupBalanceNotFound):
		return nil, ErrInsufficientFunds
	default:
		return nil, err
	}

	if d.Amount.IsPositive() {
		remaining, err := groupRemainingCapacity(tx, *d.GroupID)
		if err != nil {
			return nil, err
		}
		if d.Amount.GreaterThan(remaining) {
			return nil, ErrGroupCapacityExceeded
		}
	}

	oldValue := gb.Balance
	newValue := oldValue.Add(d.Amount)
	if newValue.IsNegative() {
		return nil, ErrInsufficientFunds
	}

	gb.Balance = newValue
	gb.LastUpdated = time.Now()
	if err := tx.SaveGroupBalance(gb); err != nil {
		return nil, err
	}

	entry := &models.BalanceChangeLog{
		UserID:         user.ID,
		Username:       user.Username,
		OldValue:       oldValue,
		NewValue:       newValue,
		PaymentType:    d.Reason,
		GroupID:        d.GroupID,
		PendingGrantID: d.PendingGrantID,
		InvestmentName: d.InvestmentName,
		Reference:      d.Reference,
	}
	if err := tx.AppendLedger(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// groupRemainingCapacity is how much of the group's original pool is still
// undistributed: OriginalBalance minus current sub-balances minus amounts
// already invested out of sub-balances.
func groupRemainingCapacity(tx repositories.DataStore, groupID uint) (decimal.Decimal, error) {
	group, err := tx.GetGroupByID(groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return decimal.Zero, ErrGroupNotFound
		}
		return decimal.Zero, err
	}
	allocated, err := tx.GroupAllocatedTotal(groupID)
	if err != nil {
		return decimal.Zero, err
	}
	invested, err := tx.GroupInvestedTotal(groupID)
	if err != nil {
		return decimal.Zero, err
	}
	return group.OriginalBalance.Sub(allocated).Sub(invested), nil
}

func (s *service) HistoryForUser(userID uint, limit, offset int) ([]models.BalanceChangeLog, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.LedgerHistoryForUser(userID, limit, offset)
}

func (s *service) AvailableBalance(userID uint) (decimal.Decimal, error) {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, err
	}
	groupTotal, err := s.store.GroupBalanceTotalForUser(userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to total group balances: %w", err)
	}
	return user.AccountBalance.Add(groupTotal), nil
}
