package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/partnergate/partnergate/internal/tools"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the tools the gateway exposes",
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	registry := tools.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMUTATING\tDESCRIPTION")
	for _, d := range registry.Descriptors() {
		fmt.Fprintf(w, "%s\t%v\t%s\n", d.Name, d.Mutating, d.Description)
	}
	return w.Flush()
}
