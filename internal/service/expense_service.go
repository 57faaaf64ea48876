package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/BaiduAV/DividaFacil/internal/calculator"
	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/storage"
	"github.com/BaiduAV/DividaFacil/pkg/api"
)

var _ api.ExpenseServiceHandler = (*ExpenseService)(nil)

var errNotCreator = errors.New("only the expense creator can change it")

// ExpenseService implements the Connect ExpenseService. Every write goes
// through the ledger runner so stored balances never drift from expenses.
type ExpenseService struct {
	store  storage.Store
	ledger *Ledger
	now    func() time.Time
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store storage.Store, ledger *Ledger) *ExpenseService {
	return &ExpenseService{
		store:  store,
		ledger: ledger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// CreateExpense records an expense and updates the group ledger.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	slog.Info("CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"installments", req.Msg.InstallmentCount,
	)

	group, err := requireMember(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	userID, _ := callerID(ctx)

	expense, err := s.buildExpense(req.Msg.ExpenseInput, group, nil)
	if err != nil {
		return nil, err
	}
	expense.ID = uuid.NewString()
	expense.GroupID = group.ID
	expense.CreatedBy = userID

	_, err = s.ledger.Apply(ctx, group.ID,
		func(g *models.Group) error {
			g.Expenses = append(g.Expenses, expense)
			return nil
		},
		func(ctx context.Context) error {
			return s.store.CreateExpense(ctx, expense)
		},
	)
	if err != nil {
		slog.Error("CreateExpense failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense created", "expense_id", expense.ID, "group_id", group.ID)
	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// GetExpense retrieves an expense by ID.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	expense, err := s.memberExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// UpdateExpense replaces an expense's editable fields. Sending
// first_due_date re-dates the expense; leaving it out keeps the stored date.
// The installment schedule is regenerated, which clears any paid marks.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	slog.Info("UpdateExpense request received", "expense_id", req.Msg.ExpenseID)

	existing, err := s.memberExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	if err := checkCanModify(ctx, existing); err != nil {
		return nil, err
	}
	group, err := s.store.GetGroup(ctx, existing.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	updated, err := s.buildExpense(req.Msg.ExpenseInput, group, existing)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.GroupID = existing.GroupID
	updated.CreatedBy = existing.CreatedBy

	_, err = s.ledger.Apply(ctx, group.ID,
		func(g *models.Group) error {
			i := slices.IndexFunc(g.Expenses, func(e *models.Expense) bool { return e.ID == updated.ID })
			if i < 0 {
				return fmt.Errorf("expense %s: %w", updated.ID, storage.ErrNotFound)
			}
			g.Expenses[i] = updated
			return nil
		},
		func(ctx context.Context) error {
			return s.store.UpdateExpense(ctx, updated)
		},
	)
	if err != nil {
		slog.Error("UpdateExpense failed", "expense_id", updated.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense updated", "expense_id", updated.ID)
	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: toAPIExpense(updated)}), nil
}

// DeleteExpense removes an expense and updates the group ledger.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	expense, err := s.memberExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	if err := checkCanModify(ctx, expense); err != nil {
		return nil, err
	}

	_, err = s.ledger.Apply(ctx, expense.GroupID,
		func(g *models.Group) error {
			g.Expenses = slices.DeleteFunc(g.Expenses, func(e *models.Expense) bool { return e.ID == expense.ID })
			return nil
		},
		func(ctx context.Context) error {
			return s.store.DeleteExpense(ctx, expense.ID)
		},
	)
	if err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense deleted", "expense_id", expense.ID)
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ListExpenses returns a group's expenses in creation order.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	if _, err := requireMember(ctx, s.store, req.Msg.GroupID); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// PayInstallment marks one period of an installment expense as paid, which
// reduces what the participants owe from then on.
func (s *ExpenseService) PayInstallment(ctx context.Context, req *connect.Request[api.PayInstallmentRequest]) (*connect.Response[api.PayInstallmentResponse], error) {
	slog.Info("PayInstallment request received", "expense_id", req.Msg.ExpenseID, "number", req.Msg.Number)

	existing, err := s.memberExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}

	var paid *models.Expense
	_, err = s.ledger.Apply(ctx, existing.GroupID,
		func(g *models.Group) error {
			i := slices.IndexFunc(g.Expenses, func(e *models.Expense) bool { return e.ID == existing.ID })
			if i < 0 {
				return fmt.Errorf("expense %s: %w", existing.ID, storage.ErrNotFound)
			}
			paid = g.Expenses[i]
			return calculator.MarkInstallmentPaid(paid, req.Msg.Number, s.now())
		},
		func(ctx context.Context) error {
			return s.store.SaveInstallments(ctx, paid)
		},
	)
	if err != nil {
		slog.Error("PayInstallment failed", "expense_id", existing.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Installment paid", "expense_id", paid.ID, "number", req.Msg.Number)
	return connect.NewResponse(&api.PayInstallmentResponse{Expense: toAPIExpense(paid)}), nil
}

// GetExpenseRemaining reports what each participant still owes for one expense.
func (s *ExpenseService) GetExpenseRemaining(ctx context.Context, req *connect.Request[api.GetExpenseRemainingRequest]) (*connect.Response[api.GetExpenseRemainingResponse], error) {
	existing, err := s.memberExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}

	group, err := s.store.LoadGroup(ctx, existing.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	i := slices.IndexFunc(group.Expenses, func(e *models.Expense) bool { return e.ID == existing.ID })
	if i < 0 {
		return nil, toConnectError(fmt.Errorf("expense %s: %w", existing.ID, storage.ErrNotFound))
	}
	expense := group.Expenses[i]

	remaining, err := calculator.ComputeExpenseRemaining(expense, group)
	if err != nil {
		return nil, toConnectError(err)
	}
	unpaid := expense.Amount
	if expense.HasInstallments() {
		unpaid = expense.UnpaidAmount()
	}

	return connect.NewResponse(&api.GetExpenseRemainingResponse{Remaining: remaining, Unpaid: unpaid}), nil
}

// buildExpense turns request fields into a validated expense with its
// installment schedule. When editing, existing supplies the dates the request
// leaves out.
func (s *ExpenseService) buildExpense(in api.ExpenseInput, group *models.Group, existing *models.Expense) (*models.Expense, error) {
	expense, err := fromExpenseInput(in, s.now())
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if existing != nil && in.FirstDueDate == "" {
		expense.CreatedAt = existing.CreatedAt
		expense.FirstDueDate = existing.FirstDueDate
	}
	if expense.FirstDueDate.IsZero() && expense.InstallmentCount > 1 {
		expense.FirstDueDate = startOfDay(expense.CreatedAt)
	}
	if expense.Description == "" {
		return nil, invalidArgument("description is required")
	}
	if !group.HasMember(expense.PayerID) {
		return nil, invalidArgument("payer %q is not a member of the group", expense.PayerID)
	}
	for _, p := range expense.Participants {
		if !group.HasMember(p) {
			return nil, invalidArgument("participant %q is not a member of the group", p)
		}
	}
	for p := range expense.SplitValues {
		if !group.HasMember(p) {
			return nil, invalidArgument("split value given for non-member %q", p)
		}
	}

	if err := calculator.ValidateExpense(expense); err != nil {
		return nil, toConnectError(err)
	}
	if err := calculator.GenerateInstallments(expense); err != nil {
		return nil, toConnectError(err)
	}
	return expense, nil
}

// memberExpense loads an expense the caller can see.
func (s *ExpenseService) memberExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}
	if expenseID == "" {
		return nil, invalidArgument("expense_id is required")
	}

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, err := requireMember(ctx, s.store, expense.GroupID); err != nil {
		return nil, err
	}
	return expense, nil
}

// checkCanModify allows the creator, or the payer when no creator was recorded.
func checkCanModify(ctx context.Context, e *models.Expense) error {
	userID, err := callerID(ctx)
	if err != nil {
		return err
	}
	owner := e.CreatedBy
	if owner == "" {
		owner = e.PayerID
	}
	if userID != owner {
		return connect.NewError(connect.CodePermissionDenied, errNotCreator)
	}
	return nil
}
