package calculator

import (
	"sort"

	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
)

// SimplifyBalances computes a small set of payments that zeroes every balance.
//
// balances maps each participant to their net balance (positive = is owed,
// negative = owes) and must sum to zero. Zero entries are ignored.
//
// Algorithm (greedy two-pointer):
//   - sort by balance ascending, ties by participant ID, so the output is reproducible
//   - i starts at the largest debtor, j at the largest creditor
//   - settle min(debt, credit) from i to j, advancing whichever side reaches zero
//     (both on an exact match)
//
// Every step settles at least one participant, so n non-zero balances need at
// most n-1 transactions.
func SimplifyBalances(balances map[string]money.Money) ([]models.Transaction, error) {
	type entry struct {
		id      string
		balance money.Money
	}

	var total money.Money
	entries := make([]entry, 0, len(balances))
	for id, b := range balances {
		total += b
		if b != 0 {
			entries = append(entries, entry{id: id, balance: b})
		}
	}
	if total != 0 {
		return nil, &SettlementError{Reason: "balances do not net to zero (off by " + total.String() + ")"}
	}

	sort.Slice(entries, func(a, b int) bool { return entries[a].id < entries[b].id })
	sort.SliceStable(entries, func(a, b int) bool { return entries[a].balance < entries[b].balance })

	transactions := []models.Transaction{}
	i, j := 0, len(entries)-1
	for i < j {
		debtor, creditor := &entries[i], &entries[j]
		if debtor.balance >= 0 || creditor.balance <= 0 {
			return nil, &SettlementError{Reason: "no debtor/creditor pair left while balances remain"}
		}

		amount := money.Min(-debtor.balance, creditor.balance)
		if amount >= money.Cent {
			transactions = append(transactions, models.Transaction{
				From:   debtor.id,
				To:     creditor.id,
				Amount: amount,
			})
		}

		debtor.balance += amount
		creditor.balance -= amount

		if debtor.balance == 0 {
			i++
		}
		if creditor.balance == 0 {
			j--
		}
	}

	for _, e := range entries {
		if e.balance != 0 {
			return nil, &SettlementError{Reason: "residual balance left for " + e.id}
		}
	}
	return transactions, nil
}
