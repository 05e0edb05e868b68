package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/youruser/rankcard/internal/rank"
)

func newRanksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ranks",
		Short: "List accepted rank names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, k := range rank.Keys() {
				aliases := rank.Aliases(k)
				sort.Strings(aliases)
				icon, _ := rank.Icon(k)
				fmt.Fprintf(w, "%-12s %-20s %s\n", k, icon, strings.Join(aliases, ", "))
			}
			return nil
		},
	}
}
