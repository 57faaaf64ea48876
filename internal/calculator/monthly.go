package calculator

import (
	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
)

// MonthKey is the layout of the month buckets ("2025-01").
const MonthKey = "2006-01"

// ComputeMonthlyAnalysis buckets every obligation into the calendar month it is
// due and returns, per month, each member's net amount (positive = is owed).
//
// Expenses without installments fall into the month they were created. An
// installment expense is spread over its installments' due months in
// proportion to the installment amounts, paid or not: this reports when
// obligations fall due, not what is still outstanding.
func ComputeMonthlyAnalysis(g *models.Group) (map[string]map[string]money.Money, error) {
	members := memberSet(g.Members)
	monthly := make(map[string]map[string]money.Money)

	add := func(month, member string, amount money.Money) {
		if monthly[month] == nil {
			monthly[month] = make(map[string]money.Money)
		}
		monthly[month][member] += amount
	}

	for _, e := range g.Expenses {
		if _, ok := members[e.PayerID]; !ok {
			return nil, splitErr(e.ID, "payer %s is not a group member", e.PayerID)
		}
		portions, err := ComputeSplit(e)
		if err != nil {
			return nil, err
		}

		for p, portion := range portions {
			if p == e.PayerID {
				continue
			}
			if _, ok := members[p]; !ok {
				continue
			}

			if !e.HasInstallments() {
				month := e.CreatedAt.Format(MonthKey)
				add(month, e.PayerID, portion)
				add(month, p, -portion)
				continue
			}

			for i, share := range allocate(portion, e.Installments, e.Amount) {
				month := e.Installments[i].DueDate.Format(MonthKey)
				add(month, e.PayerID, share)
				add(month, p, -share)
			}
		}
	}
	return monthly, nil
}

// ComputeMonthlyTransactions runs SimplifyBalances independently for every month.
func ComputeMonthlyTransactions(monthly map[string]map[string]money.Money) (map[string][]models.Transaction, error) {
	result := make(map[string][]models.Transaction, len(monthly))
	for month, balances := range monthly {
		txs, err := SimplifyBalances(balances)
		if err != nil {
			return nil, err
		}
		result[month] = txs
	}
	return result, nil
}

// allocate spreads portion over installments in proportion to their amounts.
// The last installment takes the rounding remainder, so the shares sum to portion.
func allocate(portion money.Money, installments []models.Installment, total money.Money) []money.Money {
	shares := make([]money.Money, len(installments))
	var assigned money.Money
	for i, inst := range installments {
		if i == len(installments)-1 {
			shares[i] = portion - assigned
			break
		}
		shares[i] = portion.Scale(inst.Amount, total)
		assigned += shares[i]
	}
	return shares
}
