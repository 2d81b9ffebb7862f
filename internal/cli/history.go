package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pricelens/internal/app"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect saved conversions",
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent conversions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Limit: historyLimit,
		}

		return getApp().ShowHistory(cmd.Context(), opts)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all saved conversions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ClearHistory(cmd.Context())
	},
}

func init() {
	historyShowCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of conversions to display")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
}
