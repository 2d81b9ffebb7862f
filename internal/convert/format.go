package convert

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with grouping separators and 2 to 4
// fractional digits, followed by the currency code. Display-only; the
// conversion contract never rounds.
func FormatAmount(amount decimal.Decimal, currency string) string {
	places := int32(2)
	if exp := amount.Exponent(); exp < -2 {
		places = -exp
		if places > 4 {
			places = 4
		}
	}

	fixed := amount.StringFixed(places)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	formatted := groupThousands(intPart)
	if fracPart != "" {
		formatted += "." + fracPart
	}
	if currency != "" {
		formatted += " " + currency
	}
	return formatted
}

func groupThousands(intPart string) string {
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}

	if len(intPart) <= 3 {
		return sign + intPart
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String()
}
