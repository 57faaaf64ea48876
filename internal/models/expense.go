package models

import (
	"fmt"
	"time"

	"github.com/BaiduAV/DividaFacil/internal/money"
)

// SplitRule selects how an expense is divided among its participants.
type SplitRule string

const (
	// SplitEqual divides the amount evenly; SplitValues is unused.
	SplitEqual SplitRule = "EQUAL"
	// SplitExact takes each participant's amount from SplitValues.
	SplitExact SplitRule = "EXACT"
	// SplitPercentage takes each participant's percentage points from SplitValues.
	SplitPercentage SplitRule = "PERCENTAGE"
)

// ParseSplitRule converts a string into a SplitRule. The empty string maps to EQUAL.
func ParseSplitRule(s string) (SplitRule, error) {
	switch SplitRule(s) {
	case "", SplitEqual:
		return SplitEqual, nil
	case SplitExact:
		return SplitExact, nil
	case SplitPercentage:
		return SplitPercentage, nil
	default:
		return "", fmt.Errorf("unknown split rule %q", s)
	}
}

// Expense represents money paid by one member and shared by several participants.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is the human-readable label (e.g., "Groceries").
	Description string

	// Amount is the total paid, always positive.
	Amount money.Money

	// PayerID is the member who paid and is owed by the others.
	PayerID string

	// Participants are the members sharing the cost. The order matters for
	// EQUAL splits: the rounding remainder goes to the last non-payer.
	Participants []string

	// SplitRule selects the splitting method.
	SplitRule SplitRule

	// SplitValues holds exact amounts (EXACT) or percentage points (PERCENTAGE)
	// keyed by participant. Unused for EQUAL.
	SplitValues map[string]float64

	// CreatedBy is the user who recorded the expense. Empty for legacy rows.
	CreatedBy string

	// CreatedAt is when the expense was recorded. Non-installment expenses
	// are attributed to this month by the monthly analysis.
	CreatedAt time.Time

	// InstallmentCount is the number of monthly periods (1 = paid at once).
	InstallmentCount int

	// FirstDueDate is the due date of the first installment. Defaults to CreatedAt.
	FirstDueDate time.Time

	// Installments is the generated schedule when InstallmentCount > 1.
	Installments []Installment
}

// HasInstallments reports whether the expense is tracked per period.
func (e *Expense) HasInstallments() bool {
	return e.InstallmentCount > 1 && len(e.Installments) > 0
}

// UnpaidAmount sums the amounts of installments not yet paid.
func (e *Expense) UnpaidAmount() money.Money {
	var total money.Money
	for _, inst := range e.Installments {
		if !inst.Paid {
			total += inst.Amount
		}
	}
	return total
}

// Installment is one monthly period of an installment expense.
type Installment struct {
	// Number is the 1-based position in the schedule.
	Number int

	// DueDate is the calendar day the period is due.
	DueDate time.Time

	// Amount is this period's share of the expense.
	Amount money.Money

	// Paid is set by an explicit "mark paid" operation only.
	Paid bool

	// PaidAt is when the period was marked paid. Zero while unpaid.
	PaidAt time.Time
}
