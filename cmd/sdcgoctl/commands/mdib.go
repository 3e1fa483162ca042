package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/sdcgo/internal/clioutput"
)

var mdibCmd = &cobra.Command{
	Use:   "mdib",
	Short: "Show the current MDIB version and sequence id",
	Long: `Fetch the provider's current MdibVersion and SequenceId from
/debug/mdib.`,
	RunE: runMdib,
}

func runMdib(cmd *cobra.Command, args []string) error {
	m, err := client().Mdib()
	if err != nil {
		return fmt.Errorf("failed to read mdib status: %w", err)
	}

	pairs := [][2]string{
		{"MdibVersion", fmt.Sprintf("%d", m.MdibVersion)},
		{"SequenceId", m.SequenceId},
	}
	return clioutput.SimpleTable(cmd.OutOrStdout(), pairs)
}
