package calculator

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching against the typed errors below.
var (
	ErrInvalidSplit    = errors.New("invalid split")
	ErrInvalidSchedule = errors.New("invalid installment schedule")
	ErrSettlement      = errors.New("settlement failed")
)

// InvalidSplitError reports a malformed or inconsistent split configuration.
type InvalidSplitError struct {
	ExpenseID string
	Reason    string
}

func (e *InvalidSplitError) Error() string {
	if e.ExpenseID == "" {
		return fmt.Sprintf("invalid split: %s", e.Reason)
	}
	return fmt.Sprintf("invalid split for expense %s: %s", e.ExpenseID, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidSplit) succeed.
func (e *InvalidSplitError) Is(target error) bool { return target == ErrInvalidSplit }

// InvalidScheduleError reports a bad installment configuration.
type InvalidScheduleError struct {
	ExpenseID string
	Reason    string
}

func (e *InvalidScheduleError) Error() string {
	if e.ExpenseID == "" {
		return fmt.Sprintf("invalid installment schedule: %s", e.Reason)
	}
	return fmt.Sprintf("invalid installment schedule for expense %s: %s", e.ExpenseID, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidSchedule) succeed.
func (e *InvalidScheduleError) Is(target error) bool { return target == ErrInvalidSchedule }

// SettlementError reports a broken invariant inside the settlement simplifier.
// Well-formed (zero-sum) input never produces one.
type SettlementError struct {
	Reason string
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement failed: %s", e.Reason)
}

// Is makes errors.Is(err, ErrSettlement) succeed.
func (e *SettlementError) Is(target error) bool { return target == ErrSettlement }

func splitErr(expenseID, format string, args ...any) error {
	return &InvalidSplitError{ExpenseID: expenseID, Reason: fmt.Sprintf(format, args...)}
}

func scheduleErr(expenseID, format string, args ...any) error {
	return &InvalidScheduleError{ExpenseID: expenseID, Reason: fmt.Sprintf(format, args...)}
}
