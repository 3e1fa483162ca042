package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/sdcgo/internal/clioutput"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the provider's health",
	Long: `Display the status of the connected sdcgo provider.

This command checks the status listener's /healthz endpoint and
displays its reachability and uptime.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	h, err := client().Health()
	pairs := [][2]string{{"Server", serverURL}}
	if err != nil {
		pairs = append(pairs, [2]string{"Status", "unreachable"}, [2]string{"Error", err.Error()})
		if perr := clioutput.SimpleTable(cmd.OutOrStdout(), pairs); perr != nil {
			return perr
		}
		return fmt.Errorf("provider unreachable at %s", serverURL)
	}

	pairs = append(pairs, [2]string{"Status", h.Status}, [2]string{"Uptime (s)", fmt.Sprintf("%d", h.UptimeSec)})
	return clioutput.SimpleTable(cmd.OutOrStdout(), pairs)
}
