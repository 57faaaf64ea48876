package sqlite

import (
	"context"
	"fmt"

	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
)

// SaveBalances replaces the stored ledger of a group in a single transaction.
func (s *SQLiteStore) SaveBalances(ctx context.Context, groupID string, ledger models.Ledger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM balances WHERE group_id = ?", groupID); err != nil {
		return fmt.Errorf("failed to clear balances: %w", err)
	}

	for creditor, row := range ledger {
		for debtor, amount := range row {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO balances (group_id, creditor_id, debtor_id, amount) VALUES (?, ?, ?, ?)",
				groupID, creditor, debtor, int64(amount),
			)
			if err != nil {
				return fmt.Errorf("failed to insert balance: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBalances returns the stored ledger of a group.
func (s *SQLiteStore) GetBalances(ctx context.Context, groupID string) (models.Ledger, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT creditor_id, debtor_id, amount FROM balances WHERE group_id = ?",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}
	defer rows.Close()

	ledger := make(models.Ledger)
	for rows.Next() {
		var (
			creditor, debtor string
			amount           int64
		)
		if err := rows.Scan(&creditor, &debtor, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		if ledger[creditor] == nil {
			ledger[creditor] = make(map[string]money.Money)
		}
		ledger[creditor][debtor] = money.Money(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return ledger, nil
}
