package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var transactionCmd = &cobra.Command{
	Use:   "transaction",
	Short: "Inspect transactions tracked by the local node",
}

var transactionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions recorded in the node store",
	RunE:  runTransactionList,
}

func init() {
	rootCmd.AddCommand(transactionCmd)
	transactionCmd.AddCommand(transactionListCmd)
}

func runTransactionList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.store.Close()

	txs, err := rt.store.ListTransactions()
	if err != nil {
		return fmt.Errorf("listing transactions: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRANSACTION ID\tTYPE\tSTATUS\tINITIATOR\tUPDATED")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			tx.TransactionID, tx.Type, tx.Status, tx.InitiatorDID, tx.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	return w.Flush()
}
