// Package user manages accounts: registration, anonymous donor provisioning,
// administrative balance adjustments, group pool allocations and password
// resets.
package user

import (
	"context"
	"errors"
	"fmt"

	"catalyst/internal/models"
	"catalyst/internal/repositories"
	"catalyst/internal/repositories/cache"
	"catalyst/internal/services/ledger"
	"catalyst/internal/services/notification"
	"catalyst/internal/utils"

	"github.com/shopspring/decimal"
)

type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// AdjustBalanceInput is an administrative wallet correction.
type AdjustBalanceInput struct {
	UserID        uint
	Amount        decimal.Decimal // signed
	AdminUsername string
	GrantID       *uint
	Reference     string
	// AllowNegative permits driving the wallet below zero.
	AllowNegative bool
}

// GroupAllocationInput moves funds from a group's original pool to a member's
// sub-balance.
type GroupAllocationInput struct {
	UserID        uint
	GroupID       uint
	Amount        decimal.Decimal // positive
	AdminUsername string
}

type Service interface {
	Register(in RegisterInput) (*models.User, error)
	// ProvisionAnonymousWithin creates an account for an anonymous donor
	// inside the caller's transaction: generated unique username, random
	// default password, free-user flags set.
	ProvisionAnonymousWithin(tx repositories.DataStore, email, firstName, lastName string) (*models.User, error)

	Get(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)

	AdminAdjustBalance(in AdjustBalanceInput) (*models.BalanceChangeLog, error)
	AllocateGroupBalance(in GroupAllocationInput) (*models.BalanceChangeLog, error)

	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type service struct {
	store  repositories.DataStore
	ledger ledger.Service
	cache  *cache.CacheService
}

func NewService(store repositories.DataStore, ledgerSvc ledger.Service, cacheSvc *cache.CacheService) Service {
	if store == nil {
		panic("store is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	return &service{store: store, ledger: ledgerSvc, cache: cacheSvc}
}

func (s *service) Register(in RegisterInput) (*models.User, error) {
	if in.Email == "" || in.Username == "" || len(in.Password) < 8 {
		return nil, ErrInvalidInput
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:     in.Email,
		Username:  in.Username,
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      "user",
	}
	if err := s.store.CreateUser(user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, repositories.ErrDuplicateUsername):
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	_ = s.store.EnqueueEmail(notification.Welcome(user.Email, user.Username))
	return user, nil
}

func (s *service) ProvisionAnonymousWithin(tx repositories.DataStore, email, firstName, lastName string) (*models.User, error) {
	if email == "" {
		return nil, ErrInvalidInput
	}

	username, err := s.uniqueUsername(tx, email)
	if err != nil {
		return nil, err
	}

	rawPassword, err := utils.GenerateUniqueID(16)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:               email,
		Username:            username,
		Password:            hash,
		FirstName:           firstName,
		LastName:            lastName,
		Role:                "user",
		IsFreeUser:          true,
		IsAnonymousInvestor: true,
	}
	if err := tx.CreateUser(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	_ = tx.EnqueueEmail(notification.Welcome(user.Email, user.Username))
	return user, nil
}

func (s *service) uniqueUsername(tx repositories.DataStore, email string) (string, error) {
	base := utils.UsernameBase(email)
	candidate := base
	for i := 0; i < 10; i++ {
		taken, err := tx.UsernameTaken(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		suffix, err := utils.RandomDigits(4)
		if err != nil {
			return "", err
		}
		candidate = base + suffix
	}
	return "", fmt.Errorf("could not find a free username for %q", base)
}

func (s *service) Get(id uint) (*models.User, error) {
	user, err := s.store.GetUserByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *service) GetByEmail(email string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *service) AdminAdjustBalance(in AdjustBalanceInput) (*models.BalanceChangeLog, error) {
	if in.Amount.IsZero() {
		return nil, ErrInvalidAmount
	}
	if in.AdminUsername == "" {
		return nil, ErrInvalidInput
	}

	var entry *models.BalanceChangeLog
	err := s.store.InTransaction(func(tx repositories.DataStore) error {
		var err error
		entry, err = s.ledger.ApplyWithin(tx, ledger.Delta{
			UserID:         in.UserID,
			Amount:         in.Amount,
			Reason:         "Manually, " + in.AdminUsername,
			PendingGrantID: in.GrantID,
			Reference:      in.Reference,
			AdminOverride:  in.AllowNegative,
		})
		if err != nil {
			return err
		}

		user, err := tx.GetUserForUpdate(in.UserID)
		if err != nil {
			return err
		}
		user.IsActive = true
		if err := tx.SaveUser(user); err != nil {
			return err
		}

		if in.Amount.IsPositive() && user.Email != "" && !user.OptOutEmailNotifications {
			_ = tx.EnqueueEmail(notification.WalletCredit(user.Email, in.Amount))
		}
		return nil
	})
	if err != nil {
		return nil, mapLedgerErr(err)
	}
	return entry, nil
}

func (s *service) AllocateGroupBalance(in GroupAllocationInput) (*models.BalanceChangeLog, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if in.AdminUsername == "" {
		return nil, ErrInvalidInput
	}

	var entry *models.BalanceChangeLog
	err := s.store.InTransaction(func(tx repositories.DataStore) error {
		groupID := in.GroupID
		var err error
		entry, err = s.ledger.ApplyWithin(tx, ledger.Delta{
			UserID:  in.UserID,
			Amount:  in.Amount,
			Reason:  "Manually, " + in.AdminUsername,
			GroupID: &groupID,
		})
		if err != nil {
			return err
		}

		user, err := tx.GetUserForUpdate(in.UserID)
		if err != nil {
			return err
		}
		user.IsActive = true
		return tx.SaveUser(user)
	})
	if err != nil {
		return nil, mapLedgerErr(err)
	}
	return entry, nil
}

func mapLedgerErr(err error) error {
	switch {
	case errors.Is(err, ledger.ErrUserNotFound), errors.Is(err, ledger.ErrGroupNotFound):
		return ErrNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ledger.ErrGroupCapacityExceeded):
		return ErrInsufficientFunds
	}
	return err
}

func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.GetByEmail(email)
	if err != nil {
		return err
	}

	code, err := utils.GenerateResetCode()
	if err != nil {
		return err
	}
	if err := s.cache.StoreResetCode(ctx, user.Email, code); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	return s.store.EnqueueEmail(notification.PasswordReset(user.Email, code))
}

func (s *service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrInvalidInput
	}

	user, err := s.GetByEmail(email)
	if err != nil {
		return err
	}

	ok, err := s.cache.CheckResetCode(ctx, user.Email, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidResetCode
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash
	if err := s.store.SaveUser(user); err != nil {
		return err
	}

	return s.cache.ConsumeResetCode(ctx, user.Email)
}
