package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
)

// SaveInstallments persists the paid state of every installment of an expense.
// The schedule itself is left untouched; it is only rewritten by UpdateExpense.
func (s *SQLiteStore) SaveInstallments(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, inst := range expense.Installments {
		var paidAt any
		if inst.Paid {
			paidAt = unixOrZero(inst.PaidAt)
		}

		res, err := tx.ExecContext(ctx,
			"UPDATE installments SET paid = ?, paid_at = ? WHERE expense_id = ? AND number = ?",
			inst.Paid, paidAt, expense.ID, inst.Number,
		)
		if err != nil {
			return fmt.Errorf("failed to update installment: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return notFound("installment", fmt.Sprintf("%s#%d", expense.ID, inst.Number))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) listInstallments(ctx context.Context, expenseID string) ([]models.Installment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT number, due_date, amount, paid, paid_at
		 FROM installments WHERE expense_id = ? ORDER BY number`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	defer rows.Close()

	var installments []models.Installment
	for rows.Next() {
		var (
			inst   models.Installment
			due    string
			amount int64
			paidAt sql.NullInt64
		)
		if err := rows.Scan(&inst.Number, &due, &amount, &inst.Paid, &paidAt); err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		if inst.DueDate, err = parseDate(due); err != nil {
			return nil, fmt.Errorf("bad due date %q: %w", due, err)
		}
		inst.Amount = money.Money(amount)
		if paidAt.Valid {
			inst.PaidAt = timeOrZero(paidAt.Int64)
		}
		installments = append(installments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate installments: %w", err)
	}
	return installments, nil
}

func insertInstallments(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for _, inst := range expense.Installments {
		var paidAt any
		if inst.Paid {
			paidAt = unixOrZero(inst.PaidAt)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO installments (expense_id, number, due_date, amount, paid, paid_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			expense.ID, inst.Number, formatDate(inst.DueDate), int64(inst.Amount), inst.Paid, paidAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert installment: %w", err)
		}
	}
	return nil
}
