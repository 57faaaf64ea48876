package calculator

import (
	"slices"
	"sort"

	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
)

// ComputeSplit computes how much of the expense each participant bears.
//
// The result has one entry per participant, the payer included (the payer's
// own portion never turns into a debt, see ComputeLedger). Rules:
//   - EQUAL: amount / n rounded half-up; the rounding remainder goes to the last
//     participant who is not the payer (the payer if nobody else shares)
//   - EXACT: SplitValues verbatim, missing participants owe nothing
//   - PERCENTAGE: amount * pct / 100 per participant, with the rounding residual
//     reconciled onto the same participant EQUAL would pick
func ComputeSplit(e *models.Expense) (map[string]money.Money, error) {
	if e.Amount <= 0 {
		return nil, splitErr(e.ID, "amount must be positive, got %s", e.Amount)
	}

	participants := participantSet(e)
	if dup, ok := firstDuplicate(participants); ok {
		return nil, splitErr(e.ID, "participant %s listed twice", dup)
	}

	switch e.SplitRule {
	case models.SplitEqual:
		return equalSplit(e, participants)
	case models.SplitExact:
		return exactSplit(e, participants)
	case models.SplitPercentage:
		return percentageSplit(e, participants)
	default:
		return nil, splitErr(e.ID, "unknown split rule %q", e.SplitRule)
	}
}

func equalSplit(e *models.Expense, participants []string) (map[string]money.Money, error) {
	if len(participants) == 0 {
		return nil, splitErr(e.ID, "no participants to split among")
	}

	share := e.Amount.Div(len(participants))
	portions := make(map[string]money.Money, len(participants))
	for _, p := range participants {
		portions[p] = share
	}

	if diff := e.Amount - share.Times(len(participants)); diff != 0 {
		portions[remainderTarget(e.PayerID, participants)] += diff
	}
	return portions, nil
}

func exactSplit(e *models.Expense, participants []string) (map[string]money.Money, error) {
	if len(e.SplitValues) == 0 {
		return nil, splitErr(e.ID, "no split values provided")
	}

	portions := make(map[string]money.Money, len(participants))
	for _, p := range participants {
		portions[p] = money.FromFloat(e.SplitValues[p])
	}
	return portions, nil
}

func percentageSplit(e *models.Expense, participants []string) (map[string]money.Money, error) {
	if len(e.SplitValues) == 0 {
		return nil, splitErr(e.ID, "no split values provided")
	}

	portions := make(map[string]money.Money, len(participants))
	var allocated money.Money
	var totalPct float64
	for _, p := range participants {
		pct := e.SplitValues[p]
		portions[p] = e.Amount.Percent(pct)
		allocated += portions[p]
		totalPct += pct
	}

	if len(participants) > 0 {
		if diff := e.Amount.Percent(totalPct) - allocated; diff != 0 {
			portions[remainderTarget(e.PayerID, participants)] += diff
		}
	}
	return portions, nil
}

// participantSet returns who shares the expense. Legacy EXACT/PERCENTAGE rows
// may carry only split values, in which case their keys are used.
func participantSet(e *models.Expense) []string {
	if len(e.Participants) > 0 || e.SplitRule == models.SplitEqual {
		return e.Participants
	}
	keys := make([]string, 0, len(e.SplitValues))
	for k := range e.SplitValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// remainderTarget picks the last non-payer participant, falling back to the payer.
func remainderTarget(payerID string, participants []string) string {
	for i := len(participants) - 1; i >= 0; i-- {
		if participants[i] != payerID {
			return participants[i]
		}
	}
	return payerID
}

func firstDuplicate(ids []string) (string, bool) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return "", false
}

// ValidateExpense checks the invariants an expense must satisfy before it is
// admitted to a group. Membership of payer and participants is checked by the
// caller, who knows the group.
func ValidateExpense(e *models.Expense) error {
	if e.Amount <= 0 {
		return splitErr(e.ID, "amount must be positive, got %s", e.Amount)
	}
	if e.InstallmentCount < 1 {
		return scheduleErr(e.ID, "installment count must be at least 1, got %d", e.InstallmentCount)
	}
	if e.InstallmentCount > 1 {
		if _, last := installmentShares(e.Amount, e.InstallmentCount); last <= 0 {
			return scheduleErr(e.ID, "amount %s is too small for %d installments", e.Amount, e.InstallmentCount)
		}
	}
	if dup, ok := firstDuplicate(e.Participants); ok {
		return splitErr(e.ID, "participant %s listed twice", dup)
	}

	switch e.SplitRule {
	case models.SplitEqual:
		if len(e.Participants) == 0 {
			return splitErr(e.ID, "no participants to split among")
		}
		if len(e.SplitValues) > 0 {
			return splitErr(e.ID, "EQUAL split must not carry split values")
		}
	case models.SplitExact:
		if err := checkValueKeys(e); err != nil {
			return err
		}
		var total money.Money
		for p, v := range e.SplitValues {
			if v < 0 {
				return splitErr(e.ID, "negative amount for %s", p)
			}
			total += money.FromFloat(v)
		}
		if (total - e.Amount).Abs() > money.Cent {
			return splitErr(e.ID, "exact amounts sum to %s, expense is %s", total, e.Amount)
		}
	case models.SplitPercentage:
		if err := checkValueKeys(e); err != nil {
			return err
		}
		var total float64
		for p, v := range e.SplitValues {
			if v < 0 || v > percentBase {
				return splitErr(e.ID, "percentage for %s out of range: %v", p, v)
			}
			total += v
		}
		if total < percentBase-percentTolerance || total > percentBase+percentTolerance {
			return splitErr(e.ID, "percentages sum to %v, want 100", total)
		}
	default:
		return splitErr(e.ID, "unknown split rule %q", e.SplitRule)
	}
	return nil
}

const (
	percentBase = 100.0
	// slightly above 0.01 so that 99.99 and 100.01 pass despite float noise
	percentTolerance = 0.01 + 1e-9
)

func checkValueKeys(e *models.Expense) error {
	if len(e.SplitValues) == 0 {
		return splitErr(e.ID, "no split values provided")
	}
	if len(e.Participants) == 0 {
		return nil
	}
	for p := range e.SplitValues {
		if !slices.Contains(e.Participants, p) {
			return splitErr(e.ID, "split value given for non-participant %s", p)
		}
	}
	return nil
}
