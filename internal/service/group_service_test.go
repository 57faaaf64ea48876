package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaiduAV/DividaFacil/internal/money"
	"github.com/BaiduAV/DividaFacil/pkg/api"
)

func TestCreateGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := env.register(t, "Alice"), env.register(t, "Bob")

	resp, err := env.groups.CreateGroup(ctx, as(alice, &api.CreateGroupRequest{
		Name:    "  Roommates ",
		Members: []string{bob.ID, alice.ID, bob.ID},
	}))
	require.NoError(t, err)

	group := resp.Msg.Group
	assert.NotEmpty(t, group.ID)
	assert.Equal(t, "Roommates", group.Name)
	assert.Equal(t, []string{alice.ID, bob.ID}, group.Members, "caller first, duplicates dropped")
	assert.NotZero(t, group.CreatedAt)
}

func TestCreateGroupErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "Alice")

	_, err := env.groups.CreateGroup(ctx, as(alice, &api.CreateGroupRequest{Name: " "}))
	requireCode(t, err, connect.CodeInvalidArgument)

	_, err = env.groups.CreateGroup(ctx, as(alice, &api.CreateGroupRequest{Name: "Trip", Members: []string{"ghost"}}))
	requireCode(t, err, connect.CodeInvalidArgument)

	_, err = env.groups.CreateGroup(ctx, connect.NewRequest(&api.CreateGroupRequest{Name: "Trip"}))
	requireCode(t, err, connect.CodeUnauthenticated)
}

func TestGetGroupAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob, eve := env.register(t, "Alice"), env.register(t, "Bob"), env.register(t, "Eve")
	group := env.createGroup(t, alice, bob)

	resp, err := env.groups.GetGroup(ctx, as(bob, &api.GetGroupRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.Equal(t, group.Members, resp.Msg.Group.Members)

	_, err = env.groups.GetGroup(ctx, as(eve, &api.GetGroupRequest{GroupID: group.ID}))
	requireCode(t, err, connect.CodePermissionDenied)

	_, err = env.groups.GetGroup(ctx, as(alice, &api.GetGroupRequest{GroupID: "nonexistent-id"}))
	requireCode(t, err, connect.CodeNotFound)

	_, err = env.groups.GetGroup(ctx, as(alice, &api.GetGroupRequest{}))
	requireCode(t, err, connect.CodeInvalidArgument)
}

func TestListGroupsOnlyShowsMemberships(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob, carol := env.register(t, "Alice"), env.register(t, "Bob"), env.register(t, "Carol")
	shared := env.createGroup(t, alice, bob)
	env.createGroup(t, carol)

	resp, err := env.groups.ListGroups(ctx, as(bob, &api.ListGroupsRequest{}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Groups, 1)
	assert.Equal(t, shared.ID, resp.Msg.Groups[0].ID)
}

func TestAddMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob, carol := env.register(t, "Alice"), env.register(t, "Bob"), env.register(t, "Carol")
	group := env.createGroup(t, alice, bob)

	resp, err := env.groups.AddMembers(ctx, as(bob, &api.AddMembersRequest{
		GroupID: group.ID,
		Members: []string{carol.ID, alice.ID},
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID, bob.ID, carol.ID}, resp.Msg.Group.Members)

	balances, err := env.store.GetBalances(ctx, group.ID)
	require.NoError(t, err)
	assert.Contains(t, balances[alice.ID], carol.ID, "new member gets a ledger entry")

	_, err = env.groups.AddMembers(ctx, as(alice, &api.AddMembersRequest{GroupID: group.ID}))
	requireCode(t, err, connect.CodeInvalidArgument)
}

func TestUpdateGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob, eve := env.register(t, "Alice"), env.register(t, "Bob"), env.register(t, "Eve")
	group := env.createGroup(t, alice, bob)

	resp, err := env.groups.UpdateGroup(ctx, as(bob, &api.UpdateGroupRequest{GroupID: group.ID, Name: " Beach house "}))
	require.NoError(t, err)
	assert.Equal(t, "Beach house", resp.Msg.Group.Name)
	assert.Equal(t, group.Members, resp.Msg.Group.Members)

	got, err := env.groups.GetGroup(ctx, as(alice, &api.GetGroupRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.Equal(t, "Beach house", got.Msg.Group.Name)

	_, err = env.groups.UpdateGroup(ctx, as(alice, &api.UpdateGroupRequest{GroupID: group.ID}))
	requireCode(t, err, connect.CodeInvalidArgument)
	_, err = env.groups.UpdateGroup(ctx, as(eve, &api.UpdateGroupRequest{GroupID: group.ID, Name: "Mine"}))
	requireCode(t, err, connect.CodePermissionDenied)
}

func TestDeleteGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob, eve := env.register(t, "Alice"), env.register(t, "Bob"), env.register(t, "Eve")
	group := env.createGroup(t, alice, bob)

	dinner := api.ExpenseInput{
		Description:  "Dinner",
		Amount:       2000,
		PayerID:      alice.ID,
		Participants: []string{alice.ID, bob.ID},
	}
	env.addExpense(t, alice, group.ID, dinner)

	_, err := env.groups.DeleteGroup(ctx, as(eve, &api.DeleteGroupRequest{GroupID: group.ID}))
	requireCode(t, err, connect.CodePermissionDenied)
	_, err = env.groups.DeleteGroup(ctx, as(alice, &api.DeleteGroupRequest{GroupID: group.ID}))
	requireCode(t, err, connect.CodeFailedPrecondition)

	// Bob pays the next one, which evens the group out.
	lunch := dinner
	lunch.Description = "Lunch"
	lunch.PayerID = bob.ID
	env.addExpense(t, bob, group.ID, lunch)

	_, err = env.groups.DeleteGroup(ctx, as(bob, &api.DeleteGroupRequest{GroupID: group.ID}))
	require.NoError(t, err)

	_, err = env.groups.GetGroup(ctx, as(alice, &api.GetGroupRequest{GroupID: group.ID}))
	requireCode(t, err, connect.CodeNotFound)
	expenses, err := env.store.ListExpensesByGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, expenses)

	_, err = env.groups.DeleteGroup(ctx, as(alice, &api.DeleteGroupRequest{GroupID: group.ID}))
	requireCode(t, err, connect.CodeNotFound)
}

func TestGetBalances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob, carol := env.register(t, "Alice"), env.register(t, "Bob"), env.register(t, "Carol")
	group := env.createGroup(t, alice, bob, carol)

	env.addExpense(t, alice, group.ID, api.ExpenseInput{
		Description:  "Dinner",
		Amount:       9000,
		PayerID:      alice.ID,
		Participants: []string{alice.ID, bob.ID, carol.ID},
	})
	env.addExpense(t, bob, group.ID, api.ExpenseInput{
		Description:  "Taxi",
		Amount:       3000,
		PayerID:      bob.ID,
		Participants: []string{alice.ID, bob.ID},
	})

	resp, err := env.groups.GetBalances(ctx, as(carol, &api.GetBalancesRequest{GroupID: group.ID}))
	require.NoError(t, err)

	b := resp.Msg.Balances
	assert.Equal(t, money.Money(1500), b[alice.ID][bob.ID])
	assert.Equal(t, money.Money(-1500), b[bob.ID][alice.ID])
	assert.Equal(t, money.Money(3000), b[alice.ID][carol.ID])
	assert.Equal(t, money.Money(0), b[bob.ID][carol.ID])

	assert.Equal(t, map[string]money.Money{
		alice.ID: 4500,
		bob.ID:   -1500,
		carol.ID: -3000,
	}, resp.Msg.Net)

	assert.ElementsMatch(t, []*api.Transaction{
		{From: carol.ID, To: alice.ID, Amount: 3000},
		{From: bob.ID, To: alice.ID, Amount: 1500},
	}, resp.Msg.Transactions)
}

func TestGetBalancesEmptyGroup(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "Alice")
	group := env.createGroup(t, alice)

	resp, err := env.groups.GetBalances(context.Background(), as(alice, &api.GetBalancesRequest{GroupID: group.ID}))
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.Transactions)
	assert.NotNil(t, resp.Msg.Transactions)
}

func TestGetMonthlyAnalysis(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := env.register(t, "Alice"), env.register(t, "Bob")
	group := env.createGroup(t, alice, bob)

	env.addExpense(t, alice, group.ID, api.ExpenseInput{
		Description:      "Laptop",
		Amount:           30000,
		PayerID:          alice.ID,
		Participants:     []string{alice.ID, bob.ID},
		InstallmentCount: 3,
		FirstDueDate:     "2025-01-31",
	})

	resp, err := env.groups.GetMonthlyAnalysis(ctx, as(bob, &api.GetMonthlyAnalysisRequest{GroupID: group.ID}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Months, 3)

	for i, want := range []string{"2025-01", "2025-02", "2025-03"} {
		m := resp.Msg.Months[i]
		assert.Equal(t, want, m.Month)
		assert.Equal(t, money.Money(5000), m.Balances[alice.ID])
		assert.Equal(t, money.Money(-5000), m.Balances[bob.ID])
		assert.Equal(t, []*api.Transaction{{From: bob.ID, To: alice.ID, Amount: 5000}}, m.Transactions)
	}
}

func TestGetMonthlyAnalysisBackdatedExpense(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := env.register(t, "Alice"), env.register(t, "Bob")
	group := env.createGroup(t, alice, bob)

	env.addExpense(t, alice, group.ID, api.ExpenseInput{
		Description:  "Concert tickets",
		Amount:       6000,
		PayerID:      alice.ID,
		Participants: []string{alice.ID, bob.ID},
		FirstDueDate: "2024-03-10",
	})

	resp, err := env.groups.GetMonthlyAnalysis(ctx, as(bob, &api.GetMonthlyAnalysisRequest{GroupID: group.ID}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Months, 1)
	assert.Equal(t, "2024-03", resp.Msg.Months[0].Month)
	assert.Equal(t, money.Money(3000), resp.Msg.Months[0].Balances[alice.ID])
	assert.Equal(t, money.Money(-3000), resp.Msg.Months[0].Balances[bob.ID])
}

func TestGetStatistics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := env.register(t, "Alice"), env.register(t, "Bob")
	group := env.createGroup(t, alice, bob)

	big := env.addExpense(t, alice, group.ID, api.ExpenseInput{
		Description:  "Hotel",
		Amount:       20000,
		PayerID:      alice.ID,
		Participants: []string{alice.ID, bob.ID},
	})
	env.addExpense(t, bob, group.ID, api.ExpenseInput{
		Description:  "Coffee",
		Amount:       1000,
		PayerID:      bob.ID,
		Participants: []string{alice.ID, bob.ID},
	})

	resp, err := env.groups.GetStatistics(ctx, as(bob, &api.GetStatisticsRequest{GroupID: group.ID}))
	require.NoError(t, err)

	stats := resp.Msg.Statistics
	assert.Equal(t, money.Money(21000), stats.TotalExpenses)
	assert.Equal(t, 2, stats.ExpenseCount)
	assert.Equal(t, money.Money(10500), stats.AverageExpense)
	assert.Equal(t, big.ID, stats.LargestExpenseID)
	assert.Equal(t, 1, stats.PendingSettlements)

	summary := resp.Msg.Summary
	assert.Equal(t, bob.ID, summary.UserID)
	assert.Equal(t, money.Money(1000), summary.TotalPaid)
	assert.Equal(t, money.Money(10500), summary.TotalShare)
	assert.Equal(t, money.Money(9500), summary.Owes)
	assert.Equal(t, money.Money(0), summary.Owed)
}
