package calculator

import (
	"errors"
	"testing"

	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
)

func TestComputeSplit(t *testing.T) {
	tests := []struct {
		name    string
		expense *models.Expense
		want    map[string]money.Money
	}{
		{
			name: "equal split remainder goes to last non-payer",
			expense: &models.Expense{
				Amount:       10000,
				PayerID:      "Alice",
				Participants: []string{"Alice", "Bob", "Carol"},
				SplitRule:    models.SplitEqual,
			},
			want: map[string]money.Money{"Alice": 3333, "Bob": 3333, "Carol": 3334},
		},
		{
			name: "payer listed last is skipped for the remainder",
			expense: &models.Expense{
				Amount:       10000,
				PayerID:      "Carol",
				Participants: []string{"Alice", "Bob", "Carol"},
				SplitRule:    models.SplitEqual,
			},
			want: map[string]money.Money{"Alice": 3333, "Bob": 3334, "Carol": 3333},
		},
		{
			name: "payer alone bears everything",
			expense: &models.Expense{
				Amount:       10001,
				PayerID:      "Alice",
				Participants: []string{"Alice"},
				SplitRule:    models.SplitEqual,
			},
			want: map[string]money.Money{"Alice": 10001},
		},
		{
			name: "exact amounts",
			expense: &models.Expense{
				Amount:       10000,
				PayerID:      "Alice",
				Participants: []string{"Alice", "Bob"},
				SplitRule:    models.SplitExact,
				SplitValues:  map[string]float64{"Alice": 60, "Bob": 40},
			},
			want: map[string]money.Money{"Alice": 6000, "Bob": 4000},
		},
		{
			name: "exact participant without value owes nothing",
			expense: &models.Expense{
				Amount:       5000,
				PayerID:      "Alice",
				Participants: []string{"Alice", "Bob", "Carol"},
				SplitRule:    models.SplitExact,
				SplitValues:  map[string]float64{"Bob": 25.5, "Carol": 24.5},
			},
			want: map[string]money.Money{"Alice": 0, "Bob": 2550, "Carol": 2450},
		},
		{
			name: "legacy exact row without participants uses value keys",
			expense: &models.Expense{
				Amount:      10000,
				PayerID:     "Alice",
				SplitRule:   models.SplitExact,
				SplitValues: map[string]float64{"Bob": 30, "Alice": 70},
			},
			want: map[string]money.Money{"Alice": 7000, "Bob": 3000},
		},
		{
			name: "percentages",
			expense: &models.Expense{
				Amount:       20000,
				PayerID:      "Alice",
				Participants: []string{"Alice", "Bob"},
				SplitRule:    models.SplitPercentage,
				SplitValues:  map[string]float64{"Alice": 25, "Bob": 75},
			},
			want: map[string]money.Money{"Alice": 5000, "Bob": 15000},
		},
		{
			name: "percentage rounding residual is reconciled",
			expense: &models.Expense{
				Amount:       10,
				PayerID:      "Alice",
				Participants: []string{"Alice", "Bob", "Carol"},
				SplitRule:    models.SplitPercentage,
				SplitValues:  map[string]float64{"Alice": 33.33, "Bob": 33.33, "Carol": 33.34},
			},
			want: map[string]money.Money{"Alice": 3, "Bob": 3, "Carol": 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeSplit(tt.expense)
			if err != nil {
				t.Fatalf("ComputeSplit() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ComputeSplit() = %v, want %v", got, tt.want)
			}
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("portion[%s] = %s, want %s", id, got[id], want)
				}
			}
		})
	}
}

func TestComputeSplitErrors(t *testing.T) {
	tests := []struct {
		name    string
		expense *models.Expense
	}{
		{
			name: "zero amount",
			expense: &models.Expense{
				PayerID: "Alice", Participants: []string{"Alice"}, SplitRule: models.SplitEqual,
			},
		},
		{
			name: "negative amount",
			expense: &models.Expense{
				Amount: -100, PayerID: "Alice", Participants: []string{"Alice"}, SplitRule: models.SplitEqual,
			},
		},
		{
			name: "duplicate participant",
			expense: &models.Expense{
				Amount: 100, PayerID: "Alice", Participants: []string{"Alice", "Bob", "Alice"}, SplitRule: models.SplitEqual,
			},
		},
		{
			name: "equal without participants",
			expense: &models.Expense{
				Amount: 100, PayerID: "Alice", SplitRule: models.SplitEqual,
			},
		},
		{
			name: "exact without values",
			expense: &models.Expense{
				Amount: 100, PayerID: "Alice", Participants: []string{"Alice"}, SplitRule: models.SplitExact,
			},
		},
		{
			name: "percentage without values",
			expense: &models.Expense{
				Amount: 100, PayerID: "Alice", Participants: []string{"Alice"}, SplitRule: models.SplitPercentage,
			},
		},
		{
			name: "unknown rule",
			expense: &models.Expense{
				Amount: 100, PayerID: "Alice", Participants: []string{"Alice"}, SplitRule: "SHARES",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeSplit(tt.expense)
			if !errors.Is(err, ErrInvalidSplit) {
				t.Fatalf("ComputeSplit() error = %v, want ErrInvalidSplit", err)
			}
			var splitErr *InvalidSplitError
			if !errors.As(err, &splitErr) {
				t.Errorf("error %T is not *InvalidSplitError", err)
			}
		})
	}
}

func TestEqualSplitConservation(t *testing.T) {
	participants := []string{"A", "B", "C", "D", "E", "F", "G"}
	for amount := money.Money(1); amount <= 2000; amount += 7 {
		for n := 1; n <= len(participants); n++ {
			e := &models.Expense{
				ID:           "e",
				Amount:       amount,
				PayerID:      "A",
				Participants: participants[:n],
				SplitRule:    models.SplitEqual,
			}
			portions, err := ComputeSplit(e)
			if err != nil {
				t.Fatalf("ComputeSplit(%s, n=%d) error = %v", amount, n, err)
			}
			var total money.Money
			for _, p := range portions {
				total += p
			}
			if total != amount {
				t.Fatalf("portions for %s over %d sum to %s", amount, n, total)
			}
		}
	}
}

func TestValidateExpense(t *testing.T) {
	base := func(mod func(e *models.Expense)) *models.Expense {
		e := &models.Expense{
			ID:               "e1",
			Amount:           10000,
			PayerID:          "Alice",
			Participants:     []string{"Alice", "Bob"},
			SplitRule:        models.SplitEqual,
			InstallmentCount: 1,
		}
		mod(e)
		return e
	}

	tests := []struct {
		name    string
		expense *models.Expense
		wantErr error
	}{
		{
			name:    "valid equal",
			expense: base(func(e *models.Expense) {}),
		},
		{
			name: "equal with split values",
			expense: base(func(e *models.Expense) {
				e.SplitValues = map[string]float64{"Alice": 50}
			}),
			wantErr: ErrInvalidSplit,
		},
		{
			name: "exact within one cent",
			expense: base(func(e *models.Expense) {
				e.SplitRule = models.SplitExact
				e.SplitValues = map[string]float64{"Alice": 50, "Bob": 49.99}
			}),
		},
		{
			name: "exact off by more than a cent",
			expense: base(func(e *models.Expense) {
				e.SplitRule = models.SplitExact
				e.SplitValues = map[string]float64{"Alice": 50, "Bob": 40}
			}),
			wantErr: ErrInvalidSplit,
		},
		{
			name: "exact negative value",
			expense: base(func(e *models.Expense) {
				e.SplitRule = models.SplitExact
				e.SplitValues = map[string]float64{"Alice": 110, "Bob": -10}
			}),
			wantErr: ErrInvalidSplit,
		},
		{
			name: "exact value for non-participant",
			expense: base(func(e *models.Expense) {
				e.SplitRule = models.SplitExact
				e.SplitValues = map[string]float64{"Alice": 50, "Carol": 50}
			}),
			wantErr: ErrInvalidSplit,
		},
		{
			name: "percentage within tolerance",
			expense: base(func(e *models.Expense) {
				e.SplitRule = models.SplitPercentage
				e.SplitValues = map[string]float64{"Alice": 33.33, "Bob": 66.66}
			}),
		},
		{
			name: "percentage not summing to 100",
			expense: base(func(e *models.Expense) {
				e.SplitRule = models.SplitPercentage
				e.SplitValues = map[string]float64{"Alice": 50, "Bob": 49.5}
			}),
			wantErr: ErrInvalidSplit,
		},
		{
			name: "percentage out of range",
			expense: base(func(e *models.Expense) {
				e.SplitRule = models.SplitPercentage
				e.SplitValues = map[string]float64{"Alice": 120, "Bob": -20}
			}),
			wantErr: ErrInvalidSplit,
		},
		{
			name: "zero installments",
			expense: base(func(e *models.Expense) {
				e.InstallmentCount = 0
			}),
			wantErr: ErrInvalidSchedule,
		},
		{
			name: "amount too small for installments",
			expense: base(func(e *models.Expense) {
				e.Amount = 17
				e.InstallmentCount = 10
			}),
			wantErr: ErrInvalidSchedule,
		},
		{
			name: "one cent per installment",
			expense: base(func(e *models.Expense) {
				e.Amount = 10
				e.InstallmentCount = 10
			}),
		},
		{
			name: "duplicate participant",
			expense: base(func(e *models.Expense) {
				e.Participants = []string{"Alice", "Alice"}
			}),
			wantErr: ErrInvalidSplit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExpense(tt.expense)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateExpense() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateExpense() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
