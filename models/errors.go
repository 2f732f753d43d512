package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for the failure taxonomy. Services return these (or the
// struct errors below) before touching any row, so a failed operation never
// leaves partial state.
var (
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrBillingProfileNotFound = errors.New("billing profile not found")
	ErrActivationNotFound     = errors.New("activation not found")
	ErrCashbackGroupNotFound  = errors.New("cashback group not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrDuplicateWallet        = errors.New("user already has an active wallet")
	ErrPreconditionFailed     = errors.New("precondition failed")
	ErrVersionConflict        = errors.New("wallet version conflict")
)

// ValidationError reports malformed operation input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientBalanceError is returned when a debit would take a wallet below
// zero and the negative-balance policy forbids it.
type InsufficientBalanceError struct {
	WalletID       int64
	CurrentBalance decimal.Decimal
	Required       decimal.Decimal
	Shortage       decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on wallet %d: have %s, need %s, short %s",
		e.WalletID, e.CurrentBalance.StringFixed(2), e.Required.StringFixed(2), e.Shortage.StringFixed(2))
}

// NewInsufficientBalanceError computes the shortage from the current balance
// and the required amount.
func NewInsufficientBalanceError(walletID int64, current, required decimal.Decimal) *InsufficientBalanceError {
	return &InsufficientBalanceError{
		WalletID:       walletID,
		CurrentBalance: current,
		Required:       required,
		Shortage:       required.Sub(current),
	}
}

// WalletNotActiveError is returned when a debit is attempted against a wallet
// whose status is not active.
type WalletNotActiveError struct {
	WalletID int64
	Status   WalletStatus
}

func (e *WalletNotActiveError) Error() string {
	return fmt.Sprintf("wallet %d is not active (status %q)", e.WalletID, e.Status)
}
