package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
	"github.com/BaiduAV/DividaFacil/internal/service"
)

// withLedger opens the store named by the configuration and hands a ledger
// runner to fn.
func withLedger(flags *globalFlags, fn func(l *service.Ledger) error) error {
	cfg, logger, err := setup(flags)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(service.NewLedger(store, nil, cfg.RecomputeWorkers))
}

func recomputeCmd(flags *globalFlags) *cobra.Command {
	var groupID string

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild stored balances from expenses",
		Long: `Recompute rebuilds the stored pairwise ledger of one group, or of every
group when --group is omitted, from the group's expenses and installment state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(flags, func(l *service.Ledger) error {
				if groupID != "" {
					if _, err := l.Recompute(cmd.Context(), groupID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "recomputed group %s\n", groupID)
					return nil
				}

				n, err := l.RecomputeAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d groups\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&groupID, "group", "g", "", "Group ID (default: all groups)")
	return cmd
}

func settleCmd(flags *globalFlags) *cobra.Command {
	var groupID string

	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Print net balances and suggested payments for a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			if groupID == "" {
				return errors.New("--group is required")
			}
			return withLedger(flags, func(l *service.Ledger) error {
				s, err := l.Settle(cmd.Context(), groupID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Group %s (%s)\n\n", s.Group.Name, s.Group.ID)
				printNet(out, s.Net)
				fmt.Fprintln(out)
				printTransactions(out, s.Transactions)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&groupID, "group", "g", "", "Group ID")
	return cmd
}

func monthlyCmd(flags *globalFlags) *cobra.Command {
	var groupID string

	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Print per-month balances and payments for a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			if groupID == "" {
				return errors.New("--group is required")
			}
			return withLedger(flags, func(l *service.Ledger) error {
				months, err := l.Monthly(cmd.Context(), groupID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(months) == 0 {
					fmt.Fprintln(out, "no expenses")
					return nil
				}
				for _, m := range months {
					fmt.Fprintf(out, "== %s\n", m.Month)
					printNet(out, m.Balances)
					printTransactions(out, m.Transactions)
					fmt.Fprintln(out)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&groupID, "group", "g", "", "Group ID")
	return cmd
}

func printNet(w io.Writer, net map[string]money.Money) {
	members := make([]string, 0, len(net))
	for id := range net {
		members = append(members, id)
	}
	sort.Strings(members)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MEMBER\tNET\t")
	for _, id := range members {
		fmt.Fprintf(tw, "%s\t%s\t\n", id, net[id])
	}
	tw.Flush()
}

func printTransactions(w io.Writer, txs []models.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "settled up")
		return
	}
	for _, tx := range txs {
		fmt.Fprintf(w, "%s pays %s %s\n", tx.From, tx.To, tx.Amount)
	}
}
