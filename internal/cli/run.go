package cli

import (
	"github.com/spf13/cobra"

	"pricelens/internal/app"
)

var runSave bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the frame directory and convert detected prices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Run(cmd.Context(), app.RunOptions{Save: runSave})
	},
}

func init() {
	runCmd.Flags().BoolVar(&runSave, "save", true, "Persist each conversion to history")
}
