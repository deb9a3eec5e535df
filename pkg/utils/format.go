// Package utils provides shared formatting helpers.
package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount as dollars with thousands separators.
func FormatMoney(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	str := amount.Abs().StringFixed(2)
	parts := strings.Split(str, ".")

	result := "$" + groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPercent formats a fractional return as a signed percentage, so
// 0.10 renders as "+10.00%".
func FormatPercent(ret decimal.Decimal) string {
	pct := ret.Mul(decimal.NewFromInt(100))
	sign := ""
	if pct.IsPositive() {
		sign = "+"
	}
	return sign + pct.StringFixed(2) + "%"
}

// FormatPnL formats a profit or loss amount with an explicit sign.
func FormatPnL(pnl decimal.Decimal) string {
	formatted := FormatMoney(pnl)
	if pnl.IsPositive() {
		return "+" + formatted
	}
	return formatted
}

// FormatShares formats a share quantity with thousands separators,
// trimming insignificant fractional zeros.
func FormatShares(shares decimal.Decimal) string {
	negative := shares.IsNegative()
	s := shares.Abs().String()

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	result := groupThousands(intPart) + fracPart
	if negative {
		result = "-" + result
	}
	return result
}
