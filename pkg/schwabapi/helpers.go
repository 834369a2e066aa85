package schwabapi

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount as $1234.56 or -$1234.56.
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// FormatGainLoss formats a gain/loss value with +/- prefix.
// Returns "$0.00" for zero.
func FormatGainLoss(d decimal.Decimal) string {
	if d.IsZero() {
		return "$0.00"
	}
	if d.IsPositive() {
		return "+$" + d.StringFixed(2)
	}
	return "-$" + d.Neg().StringFixed(2)
}

// FormatPercent formats a percentage with two decimals and a % suffix.
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// FormatVolume formats a volume number with thousand separators.
// Returns "-" for zero values.
func FormatVolume(vol int64) string {
	if vol == 0 {
		return "-"
	}

	str := strconv.FormatInt(vol, 10)
	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		if n > remainder {
			result.WriteString(",")
		}
	}

	for i := remainder; i < n; i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < n {
			result.WriteString(",")
		}
	}

	return result.String()
}
