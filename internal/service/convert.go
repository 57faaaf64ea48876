package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/BaiduAV/DividaFacil/internal/calculator"
	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	members := g.Members
	if members == nil {
		members = []string{}
	}
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	out := &api.Expense{
		ID:               e.ID,
		GroupID:          e.GroupID,
		Description:      e.Description,
		Amount:           e.Amount,
		PayerID:          e.PayerID,
		Participants:     e.Participants,
		SplitRule:        string(e.SplitRule),
		SplitValues:      e.SplitValues,
		CreatedBy:        e.CreatedBy,
		CreatedAt:        e.CreatedAt,
		InstallmentCount: e.InstallmentCount,
	}
	if !e.FirstDueDate.IsZero() {
		out.FirstDueDate = e.FirstDueDate.Format(api.DateLayout)
	}
	for _, inst := range e.Installments {
		apiInst := &api.Installment{
			Number:  inst.Number,
			DueDate: inst.DueDate.Format(api.DateLayout),
			Amount:  inst.Amount,
			Paid:    inst.Paid,
		}
		if inst.Paid && !inst.PaidAt.IsZero() {
			paidAt := inst.PaidAt
			apiInst.PaidAt = &paidAt
		}
		out.Installments = append(out.Installments, apiInst)
	}
	return out
}

func toAPITransactions(txs []models.Transaction) []*api.Transaction {
	out := make([]*api.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = &api.Transaction{From: tx.From, To: tx.To, Amount: tx.Amount}
	}
	return out
}

func toAPIStatistics(s calculator.GroupStatistics) *api.GroupStatistics {
	return &api.GroupStatistics{
		TotalExpenses:      s.TotalExpenses,
		ExpenseCount:       s.ExpenseCount,
		AverageExpense:     s.AverageExpense,
		LargestExpenseID:   s.LargestExpenseID,
		MostActivePayer:    s.MostActivePayer,
		PendingSettlements: s.PendingSettlements,
	}
}

func toAPISummary(s calculator.UserSummary) *api.UserSummary {
	return &api.UserSummary{
		UserID:     s.UserID,
		TotalPaid:  s.TotalPaid,
		TotalShare: s.TotalShare,
		Owes:       s.Owes,
		Owed:       s.Owed,
	}
}

// fromExpenseInput builds an expense from request fields. A supplied
// first_due_date also dates the expense, so past purchases land in their own
// month. Installments are not generated here.
func fromExpenseInput(in api.ExpenseInput, now time.Time) (*models.Expense, error) {
	rule, err := models.ParseSplitRule(strings.ToUpper(strings.TrimSpace(in.SplitRule)))
	if err != nil {
		return nil, err
	}

	count := in.InstallmentCount
	if count == 0 {
		count = 1
	}

	e := &models.Expense{
		Description:      strings.TrimSpace(in.Description),
		Amount:           in.Amount,
		PayerID:          in.PayerID,
		Participants:     in.Participants,
		SplitRule:        rule,
		SplitValues:      in.SplitValues,
		CreatedAt:        now,
		InstallmentCount: count,
	}
	if in.FirstDueDate != "" {
		due, err := time.Parse(api.DateLayout, in.FirstDueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid first_due_date %q: want YYYY-MM-DD", in.FirstDueDate)
		}
		e.FirstDueDate = due
		e.CreatedAt = due
	}
	return e, nil
}

// startOfDay drops the time of day, keeping t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
