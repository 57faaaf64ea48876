package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
)

const expenseColumns = `id, group_id, description, amount, payer_id, split_rule,
	created_by, created_at, installment_count, first_due_date`

// CreateExpense persists a new expense with participants, split values and installments.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Description, int64(expense.Amount), expense.PayerID,
		string(expense.SplitRule), expense.CreatedBy, expense.CreatedAt.Unix(),
		expense.InstallmentCount, formatDate(expense.FirstDueDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertExpenseChildren(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, including participants, split values and installments.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`,
		expenseID,
	)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.loadExpenseChildren(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense replaces an expense. Participants, split values and
// installments are rewritten from the given expense.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET description = ?, amount = ?, payer_id = ?, split_rule = ?,
		 created_at = ?, installment_count = ?, first_due_date = ?
		 WHERE id = ?`,
		expense.Description, int64(expense.Amount), expense.PayerID, string(expense.SplitRule),
		expense.CreatedAt.Unix(), expense.InstallmentCount, formatDate(expense.FirstDueDate), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	} else if n == 0 {
		return notFound("expense", expense.ID)
	}

	for _, table := range []string{"expense_participants", "expense_split_values", "installments"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE expense_id = ?", expense.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertExpenseChildren(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense by ID. Attached rows are removed by cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return notFound("expense", expenseID)
	}
	return nil
}

// ListExpensesByGroup retrieves all expenses of a group in creation order.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE group_id = ? ORDER BY created_at, rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	for _, expense := range expenses {
		if err := s.loadExpenseChildren(ctx, expense); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (*models.Expense, error) {
	var (
		expense   models.Expense
		amount    int64
		rule      string
		createdAt int64
		firstDue  string
	)
	err := row.Scan(&expense.ID, &expense.GroupID, &expense.Description, &amount, &expense.PayerID,
		&rule, &expense.CreatedBy, &createdAt, &expense.InstallmentCount, &firstDue)
	if err != nil {
		return nil, err
	}

	expense.Amount = money.Money(amount)
	expense.SplitRule = models.SplitRule(rule)
	expense.CreatedAt = time.Unix(createdAt, 0).UTC()
	if expense.FirstDueDate, err = parseDate(firstDue); err != nil {
		return nil, fmt.Errorf("bad first due date %q: %w", firstDue, err)
	}
	return &expense, nil
}

func (s *SQLiteStore) loadExpenseChildren(ctx context.Context, expense *models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM expense_participants WHERE expense_id = ? ORDER BY position",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	for rows.Next() {
		var participant string
		if err := rows.Scan(&participant); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		expense.Participants = append(expense.Participants, participant)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}

	valueRows, err := s.db.QueryContext(ctx,
		"SELECT user_id, value FROM expense_split_values WHERE expense_id = ?",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get split values: %w", err)
	}
	for valueRows.Next() {
		var (
			participant string
			value       float64
		)
		if err := valueRows.Scan(&participant, &value); err != nil {
			valueRows.Close()
			return fmt.Errorf("failed to scan split value: %w", err)
		}
		if expense.SplitValues == nil {
			expense.SplitValues = make(map[string]float64)
		}
		expense.SplitValues[participant] = value
	}
	valueRows.Close()
	if err := valueRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate split values: %w", err)
	}

	expense.Installments, err = s.listInstallments(ctx, expense.ID)
	return err
}

func insertExpenseChildren(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i, participant := range expense.Participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, user_id, position) VALUES (?, ?, ?)",
			expense.ID, participant, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for participant, value := range expense.SplitValues {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_split_values (expense_id, user_id, value) VALUES (?, ?, ?)",
			expense.ID, participant, value,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split value: %w", err)
		}
	}

	return insertInstallments(ctx, tx, expense)
}
