package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rules evaluated by scan, in evaluation order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "#\tRULE\tDESCRIPTION\n")
		for i, r := range app.scanner.Registry().List() {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, r.Name, r.Description)
		}
		w.Flush()

		weights := app.scanner.Profile().Weights()
		fmt.Fprintf(cmd.OutOrStdout(), "\nProfile %s: PASS=0 WARNING=%d CRITICAL=%d, score capped at 100\n",
			app.scanner.Profile(), weights.Warning, weights.Critical)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
