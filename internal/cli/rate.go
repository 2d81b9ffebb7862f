package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"pricelens/internal/app"
)

var (
	rateForeign string
	rateLocal   string
)

var rateCmd = &cobra.Command{
	Use:   "rate [value]",
	Short: "Show or set the exchange rate",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return getApp().ShowSettings()
		}

		rate, err := decimal.NewFromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid rate value: %w", err)
		}

		opts := app.RateOptions{
			ForeignCurrency: rateForeign,
			LocalCurrency:   rateLocal,
			Rate:            rate,
		}

		return getApp().SetRate(opts)
	},
}

func init() {
	rateCmd.Flags().StringVar(&rateForeign, "from", "USD", "Foreign currency printed on price tags")
	rateCmd.Flags().StringVar(&rateLocal, "to", "EUR", "Local currency to convert into")
}
