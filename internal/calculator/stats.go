package calculator

import (
	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
)

// GroupStatistics summarizes a group's spending.
type GroupStatistics struct {
	TotalExpenses      money.Money `json:"total_expenses"`
	ExpenseCount       int         `json:"expense_count"`
	AverageExpense     money.Money `json:"average_expense"`
	LargestExpenseID   string      `json:"largest_expense_id,omitempty"`
	MostActivePayer    string      `json:"most_active_payer,omitempty"`
	PendingSettlements int         `json:"pending_settlements"`
}

// UserSummary is one member's position across all expenses of a group.
type UserSummary struct {
	UserID     string      `json:"user_id"`
	TotalPaid  money.Money `json:"total_paid"`
	TotalShare money.Money `json:"total_share"`
	Owes       money.Money `json:"owes"`
	Owed       money.Money `json:"owed"`
}

// ComputeGroupStatistics reports totals over every expense and the number of
// payments still needed to settle the group's outstanding ledger. The most
// active payer is the member who paid the most expenses, ties going to the
// smaller ID; the largest expense is the first one with the maximum amount.
func ComputeGroupStatistics(g *models.Group) (GroupStatistics, error) {
	var stats GroupStatistics
	if len(g.Expenses) == 0 {
		return stats, nil
	}

	paidCount := make(map[string]int)
	var largest *models.Expense
	for _, e := range g.Expenses {
		stats.TotalExpenses += e.Amount
		paidCount[e.PayerID]++
		if largest == nil || e.Amount > largest.Amount {
			largest = e
		}
	}
	stats.ExpenseCount = len(g.Expenses)
	stats.AverageExpense = stats.TotalExpenses.Div(stats.ExpenseCount)
	stats.LargestExpenseID = largest.ID

	best := 0
	for payer, n := range paidCount {
		if n > best || (n == best && payer < stats.MostActivePayer) {
			best = n
			stats.MostActivePayer = payer
		}
	}

	ledger, err := ComputeLedger(g)
	if err != nil {
		return GroupStatistics{}, err
	}
	txs, err := SimplifyBalances(NetBalances(ledger))
	if err != nil {
		return GroupStatistics{}, err
	}
	stats.PendingSettlements = len(txs)
	return stats, nil
}

// ComputeUserSummary reports what userID paid and bore over the whole life of
// the group, installments included regardless of payment status. Owes and Owed
// are the two sides of TotalPaid - TotalShare; at most one of them is non-zero.
func ComputeUserSummary(userID string, g *models.Group) (UserSummary, error) {
	summary := UserSummary{UserID: userID}
	for _, e := range g.Expenses {
		portions, err := ComputeSplit(e)
		if err != nil {
			return UserSummary{}, err
		}
		summary.TotalShare += portions[userID]
		if e.PayerID == userID {
			summary.TotalPaid += e.Amount
		}
	}

	net := summary.TotalPaid - summary.TotalShare
	if net > 0 {
		summary.Owed = net
	} else {
		summary.Owes = -net
	}
	return summary, nil
}
