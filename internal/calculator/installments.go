package calculator

import (
	"time"

	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
)

// GenerateInstallments builds the monthly schedule of an installment expense and
// stores it in e.Installments, replacing any previous schedule.
//
// Each period is amount / n rounded half-up; the last period absorbs the
// remainder so the periods sum to the amount exactly. An amount too small for
// that last period to stay positive is rejected. Due dates advance by
// calendar months from FirstDueDate (CreatedAt when unset), clamping the day
// to the end of shorter months: Jan 31, Feb 28, Mar 31.
func GenerateInstallments(e *models.Expense) error {
	if e.InstallmentCount < 1 {
		return scheduleErr(e.ID, "installment count must be at least 1, got %d", e.InstallmentCount)
	}
	if e.InstallmentCount == 1 {
		return nil
	}
	if e.Amount <= 0 {
		return scheduleErr(e.ID, "amount must be positive, got %s", e.Amount)
	}

	per, last := installmentShares(e.Amount, e.InstallmentCount)
	if last <= 0 {
		return scheduleErr(e.ID, "amount %s is too small for %d installments", e.Amount, e.InstallmentCount)
	}

	if e.FirstDueDate.IsZero() {
		if e.CreatedAt.IsZero() {
			return scheduleErr(e.ID, "no first due date and no creation time")
		}
		e.FirstDueDate = e.CreatedAt
	}

	n := e.InstallmentCount
	installments := make([]models.Installment, n)
	for i := range installments {
		amount := per
		if i == n-1 {
			amount = last
		}
		installments[i] = models.Installment{
			Number:  i + 1,
			DueDate: AddMonths(e.FirstDueDate, i),
			Amount:  amount,
		}
	}
	e.Installments = installments
	return nil
}

// installmentShares splits amount into n periods: n-1 of per and a final one
// carrying the remainder.
func installmentShares(amount money.Money, n int) (per, last money.Money) {
	per = amount.Div(n)
	return per, amount - per.Times(n-1)
}

// AddMonths returns the calendar date months after t, keeping the day of month
// when it exists and clamping to the month's last day otherwise. The time of
// day is dropped; the location of t is kept.
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	// Day 1 never overflows, so normalization only carries months into years.
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// MarkInstallmentPaid flags installment number as paid at the given time.
// It fails when the installment does not exist or was already paid.
func MarkInstallmentPaid(e *models.Expense, number int, at time.Time) error {
	for i := range e.Installments {
		inst := &e.Installments[i]
		if inst.Number != number {
			continue
		}
		if inst.Paid {
			return scheduleErr(e.ID, "installment %d already paid", number)
		}
		inst.Paid = true
		inst.PaidAt = at
		return nil
	}
	return scheduleErr(e.ID, "installment %d not found", number)
}
