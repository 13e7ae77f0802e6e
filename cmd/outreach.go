package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospector-cli/internal/pipeline"
)

var outreachDryRun bool

var outreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Send outreach for prospects a previous run left pending",
	Long:  "Composes and dispatches messages for ledger rows the pipeline recorded but did not contact (e.g. dry-run leftovers), updating each row's status.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("outreach"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		o := pipeline.NewOutreach(st, newComposer(), newMailer())

		summary, err := o.Run(ctx, outreachDryRun)
		if err != nil {
			return eris.Wrap(err, "outreach run")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	outreachCmd.Flags().BoolVar(&outreachDryRun, "dry-run", false, "list what would be sent without sending")
	rootCmd.AddCommand(outreachCmd)
}
