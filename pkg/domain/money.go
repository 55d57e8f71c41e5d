package domain

import (
	"fmt"
	"strings"
)

// FormatAmount renders minor units as "$29.99 USD".
func FormatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s$%d.%02d %s", sign, amount/100, amount%100, strings.ToUpper(strings.TrimSpace(currency)))
}
