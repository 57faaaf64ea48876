package models

import (
	"slices"

	"github.com/BaiduAV/DividaFacil/internal/money"
)

// Group represents a set of people who share expenses.
//
// Membership is monotonic: members are only ever added. Balances are never
// migrated when somebody would leave, so removal is not supported.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Trip to Lisbon").
	Name string

	// Members is the list of user IDs in this group.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// Expenses are the group's expenses, loaded on demand by the store.
	Expenses []*Expense

	// Balances is the last computed pairwise ledger. It is derived data:
	// calculator.RecomputeGroupBalances replaces it wholesale.
	Balances Ledger
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

// Ledger is the pairwise balance map of a group.
//
// Ledger[a][b] > 0 means b owes a that amount; Ledger[a][b] < 0 means a owes b.
// It is antisymmetric: Ledger[a][b] == -Ledger[b][a].
type Ledger map[string]map[string]money.Money

// Net returns the single signed total of a member's pairwise balances.
// Positive means the member is owed overall.
func (l Ledger) Net(member string) money.Money {
	var total money.Money
	for _, amount := range l[member] {
		total += amount
	}
	return total
}

// Transaction is a suggested payment that reduces outstanding balances.
type Transaction struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Amount money.Money `json:"amount"`
}
