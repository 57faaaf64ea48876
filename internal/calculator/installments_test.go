package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestGenerateInstallments(t *testing.T) {
	tests := []struct {
		name        string
		amount      money.Money
		count       int
		first       time.Time
		wantAmounts []money.Money
		wantDates   []time.Time
	}{
		{
			name:        "even split clamps end of month",
			amount:      30000,
			count:       3,
			first:       date(2025, time.January, 31),
			wantAmounts: []money.Money{10000, 10000, 10000},
			wantDates:   []time.Time{date(2025, time.January, 31), date(2025, time.February, 28), date(2025, time.March, 31)},
		},
		{
			name:        "last installment absorbs remainder",
			amount:      10000,
			count:       3,
			first:       date(2025, time.May, 15),
			wantAmounts: []money.Money{3333, 3333, 3334},
			wantDates:   []time.Time{date(2025, time.May, 15), date(2025, time.June, 15), date(2025, time.July, 15)},
		},
		{
			name:        "leap year february",
			amount:      200,
			count:       2,
			first:       date(2024, time.January, 31),
			wantAmounts: []money.Money{100, 100},
			wantDates:   []time.Time{date(2024, time.January, 31), date(2024, time.February, 29)},
		},
		{
			name:        "crosses year boundary",
			amount:      1000,
			count:       4,
			first:       date(2025, time.November, 30),
			wantAmounts: []money.Money{250, 250, 250, 250},
			wantDates: []time.Time{
				date(2025, time.November, 30), date(2025, time.December, 30),
				date(2026, time.January, 30), date(2026, time.February, 28),
			},
		},
		{
			name:        "rounding half up on each period",
			amount:      1001,
			count:       6,
			first:       date(2025, time.March, 1),
			wantAmounts: []money.Money{167, 167, 167, 167, 167, 166},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &models.Expense{
				ID:               "e1",
				Amount:           tt.amount,
				InstallmentCount: tt.count,
				FirstDueDate:     tt.first,
			}
			if err := GenerateInstallments(e); err != nil {
				t.Fatalf("GenerateInstallments() error = %v", err)
			}
			if len(e.Installments) != tt.count {
				t.Fatalf("got %d installments, want %d", len(e.Installments), tt.count)
			}

			var total money.Money
			for i, inst := range e.Installments {
				total += inst.Amount
				if inst.Number != i+1 {
					t.Errorf("installment %d has number %d", i, inst.Number)
				}
				if inst.Paid {
					t.Errorf("installment %d generated as paid", inst.Number)
				}
				if inst.Amount != tt.wantAmounts[i] {
					t.Errorf("installment %d amount = %s, want %s", inst.Number, inst.Amount, tt.wantAmounts[i])
				}
				if tt.wantDates != nil && !inst.DueDate.Equal(tt.wantDates[i]) {
					t.Errorf("installment %d due = %s, want %s", inst.Number, inst.DueDate.Format(time.DateOnly), tt.wantDates[i].Format(time.DateOnly))
				}
			}
			if total != tt.amount {
				t.Errorf("installments sum to %s, want %s", total, tt.amount)
			}
		})
	}
}

func TestGenerateInstallmentsSingle(t *testing.T) {
	e := &models.Expense{Amount: 5000, InstallmentCount: 1, CreatedAt: date(2025, time.April, 2)}
	if err := GenerateInstallments(e); err != nil {
		t.Fatalf("GenerateInstallments() error = %v", err)
	}
	if len(e.Installments) != 0 {
		t.Errorf("single payment expense got %d installments", len(e.Installments))
	}
	if e.HasInstallments() {
		t.Error("HasInstallments() = true for a single payment")
	}
}

func TestGenerateInstallmentsDefaultsToCreatedAt(t *testing.T) {
	created := time.Date(2025, time.August, 31, 18, 45, 0, 0, time.UTC)
	e := &models.Expense{Amount: 900, InstallmentCount: 3, CreatedAt: created}
	if err := GenerateInstallments(e); err != nil {
		t.Fatalf("GenerateInstallments() error = %v", err)
	}
	want := []time.Time{date(2025, time.August, 31), date(2025, time.September, 30), date(2025, time.October, 31)}
	for i, inst := range e.Installments {
		if !inst.DueDate.Equal(want[i]) {
			t.Errorf("installment %d due = %s, want %s", inst.Number, inst.DueDate, want[i])
		}
	}
}

func TestGenerateInstallmentsErrors(t *testing.T) {
	tests := []struct {
		name    string
		expense *models.Expense
	}{
		{"zero count", &models.Expense{Amount: 100, InstallmentCount: 0, CreatedAt: date(2025, 1, 1)}},
		{"negative count", &models.Expense{Amount: 100, InstallmentCount: -2, CreatedAt: date(2025, 1, 1)}},
		{"zero amount", &models.Expense{InstallmentCount: 3, CreatedAt: date(2025, 1, 1)}},
		{"no dates", &models.Expense{Amount: 100, InstallmentCount: 3}},
		{"last period negative", &models.Expense{Amount: 17, InstallmentCount: 10, CreatedAt: date(2025, 1, 1)}},
		{"last period zero", &models.Expense{Amount: 18, InstallmentCount: 10, CreatedAt: date(2025, 1, 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GenerateInstallments(tt.expense)
			if !errors.Is(err, ErrInvalidSchedule) {
				t.Fatalf("GenerateInstallments() error = %v, want ErrInvalidSchedule", err)
			}
		})
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		from   time.Time
		months int
		want   time.Time
	}{
		{date(2025, time.January, 31), 1, date(2025, time.February, 28)},
		{date(2025, time.January, 31), 2, date(2025, time.March, 31)},
		{date(2025, time.March, 31), 1, date(2025, time.April, 30)},
		{date(2025, time.December, 15), 1, date(2026, time.January, 15)},
		{date(2025, time.June, 10), 0, date(2025, time.June, 10)},
		{date(2025, time.January, 29), 13, date(2026, time.February, 28)},
		{time.Date(2025, time.May, 5, 23, 59, 0, 0, time.UTC), 1, date(2025, time.June, 5)},
	}

	for _, tt := range tests {
		got := AddMonths(tt.from, tt.months)
		if !got.Equal(tt.want) {
			t.Errorf("AddMonths(%s, %d) = %s, want %s", tt.from, tt.months, got, tt.want)
		}
	}
}

func TestMarkInstallmentPaid(t *testing.T) {
	e := &models.Expense{ID: "e1", Amount: 30000, InstallmentCount: 3, FirstDueDate: date(2025, time.January, 10)}
	if err := GenerateInstallments(e); err != nil {
		t.Fatalf("GenerateInstallments() error = %v", err)
	}

	paidAt := date(2025, time.January, 12)
	if err := MarkInstallmentPaid(e, 1, paidAt); err != nil {
		t.Fatalf("MarkInstallmentPaid() error = %v", err)
	}
	if !e.Installments[0].Paid || !e.Installments[0].PaidAt.Equal(paidAt) {
		t.Errorf("installment 1 = %+v, want paid at %s", e.Installments[0], paidAt)
	}
	if got := e.UnpaidAmount(); got != 20000 {
		t.Errorf("UnpaidAmount() = %s, want 200.00", got)
	}

	if err := MarkInstallmentPaid(e, 1, paidAt); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("paying twice: error = %v, want ErrInvalidSchedule", err)
	}
	if err := MarkInstallmentPaid(e, 4, paidAt); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("unknown installment: error = %v, want ErrInvalidSchedule", err)
	}
}
