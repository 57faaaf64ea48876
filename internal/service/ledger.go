package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BaiduAV/DividaFacil/internal/calculator"
	"github.com/BaiduAV/DividaFacil/internal/metrics"
	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
	"github.com/BaiduAV/DividaFacil/internal/storage"
)

// Ledger keeps each group's stored balances in step with its expenses.
//
// All changes to a group's expenses go through Apply, which holds a per-group
// lock, so a group has a single writer at a time. Different groups proceed in
// parallel.
//
// Expenses are the source of truth. The stored ledger is a cache of what they
// imply: every read that reports balances recomputes it first, and the
// recompute command rebuilds it for all groups.
type Ledger struct {
	store   storage.Store
	metrics *metrics.Metrics
	workers int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLedger creates a ledger runner. workers bounds RecomputeAll's parallelism.
// m may be nil.
func NewLedger(store storage.Store, m *metrics.Metrics, workers int) *Ledger {
	if workers < 1 {
		workers = 1
	}
	return &Ledger{
		store:   store,
		metrics: m,
		workers: workers,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) lock(groupID string) func() {
	l.mu.Lock()
	m, ok := l.locks[groupID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[groupID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Apply changes a group atomically with respect to its ledger.
//
// With the group's lock held it loads the group, lets change edit it in memory
// and recomputes the ledger from the result. Only when that succeeds is persist
// called and the new ledger saved, so a malformed expense never reaches the
// store. persist may be nil.
func (l *Ledger) Apply(ctx context.Context, groupID string, change func(g *models.Group) error, persist func(ctx context.Context) error) (*models.Group, error) {
	unlock := l.lock(groupID)
	defer unlock()

	start := time.Now()
	group, err := l.apply(ctx, groupID, change, persist)
	l.observe(start, err)
	return group, err
}

func (l *Ledger) apply(ctx context.Context, groupID string, change func(g *models.Group) error, persist func(ctx context.Context) error) (*models.Group, error) {
	group, err := l.store.LoadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if change != nil {
		if err := change(group); err != nil {
			return nil, err
		}
	}
	if err := calculator.RecomputeGroupBalances(group); err != nil {
		return nil, err
	}

	if persist == nil {
		if err := l.store.SaveBalances(ctx, groupID, group.Balances); err != nil {
			return nil, fmt.Errorf("failed to save balances: %w", err)
		}
		return group, nil
	}

	if err := persist(ctx); err != nil {
		return nil, err
	}
	// The change is committed at this point. A failed cache write leaves the
	// stored ledger stale until the next recompute, but must not report the
	// change itself as failed.
	if err := l.store.SaveBalances(ctx, groupID, group.Balances); err != nil {
		slog.Warn("Stored ledger is stale until the next recompute", "group_id", groupID, "error", err)
	}
	return group, nil
}

// Recompute rebuilds and stores one group's ledger from its expenses.
func (l *Ledger) Recompute(ctx context.Context, groupID string) (*models.Group, error) {
	return l.Apply(ctx, groupID, nil, nil)
}

// RecomputeAll recomputes every group, at most l.workers at a time.
// The first failure cancels the remaining work and is returned.
func (l *Ledger) RecomputeAll(ctx context.Context) (int, error) {
	groups, err := l.store.ListGroups(ctx)
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for _, group := range groups {
		g.Go(func() error {
			if _, err := l.Recompute(ctx, group.ID); err != nil {
				return fmt.Errorf("group %s: %w", group.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(groups), nil
}

// ErrGroupNotSettled is returned by Delete while someone still owes money.
var ErrGroupNotSettled = errors.New("group has outstanding balances")

// Delete removes a group once its balances are settled. The check and the
// delete happen under the group's lock, so no expense can slip in between.
func (l *Ledger) Delete(ctx context.Context, groupID string) error {
	unlock := l.lock(groupID)
	defer unlock()

	group, err := l.store.LoadGroup(ctx, groupID)
	if err != nil {
		return err
	}
	ledger, err := calculator.ComputeLedger(group)
	if err != nil {
		return err
	}
	txs, err := calculator.SimplifyBalances(calculator.NetBalances(ledger))
	if err != nil {
		return err
	}
	if len(txs) > 0 {
		return fmt.Errorf("%w: %d payments pending", ErrGroupNotSettled, len(txs))
	}
	return l.store.DeleteGroup(ctx, groupID)
}

// Settlement is a group's current balances and the payments that clear them.
type Settlement struct {
	Group        *models.Group
	Net          map[string]money.Money
	Transactions []models.Transaction
}

// Settle recomputes a group's ledger and suggests the payments that settle it.
func (l *Ledger) Settle(ctx context.Context, groupID string) (*Settlement, error) {
	group, err := l.Recompute(ctx, groupID)
	if err != nil {
		return nil, err
	}

	net := calculator.NetBalances(group.Balances)
	txs, err := calculator.SimplifyBalances(net)
	if err != nil {
		return nil, err
	}
	if l.metrics != nil {
		l.metrics.ObserveSettlement(len(txs))
	}
	return &Settlement{Group: group, Net: net, Transactions: txs}, nil
}

// MonthSummary is one month of a monthly analysis.
type MonthSummary struct {
	Month        string
	Balances     map[string]money.Money
	Transactions []models.Transaction
}

// Monthly computes a group's per-month obligations, oldest month first.
func (l *Ledger) Monthly(ctx context.Context, groupID string) ([]MonthSummary, error) {
	group, err := l.store.LoadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	balances, err := calculator.ComputeMonthlyAnalysis(group)
	if err != nil {
		return nil, err
	}
	txs, err := calculator.ComputeMonthlyTransactions(balances)
	if err != nil {
		return nil, err
	}

	months := make([]MonthSummary, 0, len(balances))
	for month, b := range balances {
		months = append(months, MonthSummary{Month: month, Balances: b, Transactions: txs[month]})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months, nil
}

func (l *Ledger) observe(start time.Time, err error) {
	if l.metrics != nil {
		l.metrics.ObserveRecompute(time.Since(start).Seconds(), err)
	}
	if err != nil {
		slog.Debug("Ledger update failed", "error", err)
	}
}
