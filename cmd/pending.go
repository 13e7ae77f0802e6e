package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List prospects eligible for outreach",
	Long:  "Prints ledger rows with status=new, a qualifying presence state, and a known contact email.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		pending, err := st.PendingForOutreach(ctx)
		if err != nil {
			return eris.Wrap(err, "list pending")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pending)
	},
}

func init() {
	rootCmd.AddCommand(pendingCmd)
}
