// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/BaiduAV/DividaFacil/internal/models"
)

// ErrNotFound is returned (wrapped) when a group or expense does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for group, expense and user persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateGroup persists a new group with its initial members.
	// The group.ID and group.CreatedAt fields are populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members and stored balances.
	// Expenses are not loaded; use LoadGroup for that.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// LoadGroup retrieves a group together with all its expenses and installments,
	// ready to be handed to the calculator.
	LoadGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups retrieves every group, newest first.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// ListGroupsByMember retrieves the groups userID belongs to.
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)

	// AddMembers adds users to a group. Existing members are ignored.
	AddMembers(ctx context.Context, groupID string, members []string) error

	// UpdateGroup renames a group. Members are left alone.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes a group with its members, expenses and stored ledger.
	DeleteGroup(ctx context.Context, groupID string) error

	// CreateExpense persists a new expense with participants, split values and
	// installments. The expense.ID field is populated by the store when empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces an existing expense and everything attached to it.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense by ID.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByGroup retrieves a group's expenses in creation order.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// SaveInstallments persists the paid state of an expense's installments.
	SaveInstallments(ctx context.Context, expense *models.Expense) error

	// SaveBalances replaces the stored ledger of a group.
	SaveBalances(ctx context.Context, groupID string, ledger models.Ledger) error

	// GetBalances returns the stored ledger of a group (empty if never computed).
	GetBalances(ctx context.Context, groupID string) (models.Ledger, error)

	// CreateUser persists a new user.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns nil and no error when the user does not exist.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns nil and no error when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns the users that exist, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
