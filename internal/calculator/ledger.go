package calculator

import (
	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
)

// ComputeLedger rebuilds a group's pairwise balances from its expenses.
//
// It always starts from an all-zero ledger with an entry for every pair of
// members, so the result depends only on the group's current members and
// expenses, never on edit history. For each expense:
//   - portions come from ComputeSplit
//   - installment expenses only count their unpaid fraction; fully paid ones
//     contribute nothing
//   - every non-payer member owes the payer round(portion * fraction)
//
// Participants that are not members are dropped. A payer outside the group,
// or any malformed expense, fails the whole computation.
func ComputeLedger(g *models.Group) (models.Ledger, error) {
	ledger := newLedger(g.Members)
	members := memberSet(g.Members)

	for _, e := range g.Expenses {
		owed, err := outstanding(e, members)
		if err != nil {
			return nil, err
		}
		for p, amount := range owed {
			ledger[e.PayerID][p] += amount
			ledger[p][e.PayerID] -= amount
		}
	}
	return ledger, nil
}

// RecomputeGroupBalances replaces g.Balances with a freshly computed ledger.
// On error g.Balances is left untouched.
func RecomputeGroupBalances(g *models.Group) error {
	ledger, err := ComputeLedger(g)
	if err != nil {
		return err
	}
	g.Balances = ledger
	return nil
}

// ComputeExpenseRemaining returns what each non-payer member still owes the
// payer for one expense: the full share, or the unpaid fraction of it for
// installment expenses. Participants owing nothing are omitted.
func ComputeExpenseRemaining(e *models.Expense, g *models.Group) (map[string]money.Money, error) {
	owed, err := outstanding(e, memberSet(g.Members))
	if err != nil {
		return nil, err
	}
	for p, amount := range owed {
		if amount <= 0 {
			delete(owed, p)
		}
	}
	return owed, nil
}

// NetBalances collapses a ledger to one signed total per member.
// Positive means the member is owed overall.
func NetBalances(l models.Ledger) map[string]money.Money {
	net := make(map[string]money.Money, len(l))
	for member := range l {
		net[member] = l.Net(member)
	}
	return net
}

// outstanding returns, per non-payer member, the amount the expense currently
// makes them owe the payer.
func outstanding(e *models.Expense, members map[string]struct{}) (map[string]money.Money, error) {
	if _, ok := members[e.PayerID]; !ok {
		return nil, splitErr(e.ID, "payer %s is not a group member", e.PayerID)
	}

	portions, err := ComputeSplit(e)
	if err != nil {
		return nil, err
	}

	unpaid := e.Amount
	if e.HasInstallments() {
		unpaid = e.UnpaidAmount()
		if unpaid <= 0 {
			return map[string]money.Money{}, nil
		}
	}

	owed := make(map[string]money.Money, len(portions))
	for p, portion := range portions {
		if p == e.PayerID {
			continue
		}
		if _, ok := members[p]; !ok {
			continue
		}
		if unpaid == e.Amount {
			owed[p] = portion
		} else {
			owed[p] = portion.Scale(unpaid, e.Amount)
		}
	}
	return owed, nil
}

func newLedger(members []string) models.Ledger {
	ledger := make(models.Ledger, len(members))
	for _, a := range members {
		row := make(map[string]money.Money, len(members))
		for _, b := range members {
			if a != b {
				row[b] = 0
			}
		}
		ledger[a] = row
	}
	return ledger
}

func memberSet(members []string) map[string]struct{} {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return set
}
