package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pricelens/internal/app"
)

var scanSave bool

var scanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Detect and convert the price on a single image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "" {
			return fmt.Errorf("image path must not be empty")
		}

		opts := app.ScanOptions{
			Path: args[0],
			Save: scanSave,
		}

		return getApp().Scan(cmd.Context(), opts)
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "Persist the conversion to history")
}
