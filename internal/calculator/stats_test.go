package calculator

import (
	"testing"

	"github.com/BaiduAV/DividaFacil/internal/models"
)

func statsGroup() *models.Group {
	return &models.Group{
		ID:      "g1",
		Members: []string{"Alice", "Bob", "Carol"},
		Expenses: []*models.Expense{
			equalExpense("e1", "Alice", 9000, "Alice", "Bob", "Carol"),
			equalExpense("e2", "Bob", 3000, "Alice", "Bob"),
			equalExpense("e3", "Alice", 1000, "Alice", "Bob"),
		},
	}
}

func TestComputeGroupStatistics(t *testing.T) {
	got, err := ComputeGroupStatistics(statsGroup())
	if err != nil {
		t.Fatalf("ComputeGroupStatistics() error = %v", err)
	}
	want := GroupStatistics{
		TotalExpenses:      13000,
		ExpenseCount:       3,
		AverageExpense:     4333,
		LargestExpenseID:   "e1",
		MostActivePayer:    "Alice",
		PendingSettlements: 2,
	}
	if got != want {
		t.Errorf("ComputeGroupStatistics() = %+v, want %+v", got, want)
	}
}

func TestComputeGroupStatisticsTies(t *testing.T) {
	g := &models.Group{
		ID:      "g1",
		Members: []string{"Alice", "Bob"},
		Expenses: []*models.Expense{
			equalExpense("e1", "Bob", 2000, "Alice", "Bob"),
			equalExpense("e2", "Alice", 2000, "Alice", "Bob"),
		},
	}
	got, err := ComputeGroupStatistics(g)
	if err != nil {
		t.Fatalf("ComputeGroupStatistics() error = %v", err)
	}
	if got.MostActivePayer != "Alice" {
		t.Errorf("MostActivePayer = %q, want Alice", got.MostActivePayer)
	}
	if got.LargestExpenseID != "e1" {
		t.Errorf("LargestExpenseID = %q, want e1", got.LargestExpenseID)
	}
	if got.PendingSettlements != 0 {
		t.Errorf("PendingSettlements = %d, want 0", got.PendingSettlements)
	}
}

func TestComputeGroupStatisticsEmpty(t *testing.T) {
	got, err := ComputeGroupStatistics(&models.Group{ID: "g1", Members: []string{"Alice"}})
	if err != nil {
		t.Fatalf("ComputeGroupStatistics() error = %v", err)
	}
	if got != (GroupStatistics{}) {
		t.Errorf("ComputeGroupStatistics() = %+v, want zero value", got)
	}
}

func TestComputeUserSummary(t *testing.T) {
	tests := []struct {
		user string
		want UserSummary
	}{
		{"Alice", UserSummary{UserID: "Alice", TotalPaid: 10000, TotalShare: 5000, Owed: 5000}},
		{"Bob", UserSummary{UserID: "Bob", TotalPaid: 3000, TotalShare: 5000, Owes: 2000}},
		{"Carol", UserSummary{UserID: "Carol", TotalShare: 3000, Owes: 3000}},
		{"Dave", UserSummary{UserID: "Dave"}},
	}

	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			got, err := ComputeUserSummary(tt.user, statsGroup())
			if err != nil {
				t.Fatalf("ComputeUserSummary() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ComputeUserSummary() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
