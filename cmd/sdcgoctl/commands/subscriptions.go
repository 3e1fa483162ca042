package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/sdcgo/internal/clioutput"
)

var subscriptionsCmd = &cobra.Command{
	Use:     "subscriptions",
	Aliases: []string{"subs"},
	Short:   "List live WS-Eventing subscriptions",
	Long: `Fetch the provider's live subscription table from
/debug/subscriptions and render it as a table.`,
	RunE: runSubscriptions,
}

func runSubscriptions(cmd *cobra.Command, args []string) error {
	rows, err := client().Subscriptions()
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}

	table := clioutput.NewTableData("IDENTIFIER", "NOTIFY TO", "REMAINING (S)", "MAX ROUND TRIP")
	for _, r := range rows {
		table.AddRow(r.Identifier, r.NotifyTo, fmt.Sprintf("%.1f", r.RemainingSeconds), r.MaxRoundTrip.String())
	}

	return clioutput.PrintTable(cmd.OutOrStdout(), table)
}
