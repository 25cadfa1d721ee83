// Package format holds the presentation helpers for metric values. All
// functions are total over their domains: a nil input renders as "N/A" and
// nothing here ever returns an error. This is the only layer allowed to
// substitute a display placeholder, and only for nil, never for failures.
package format

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NotAvailable is the placeholder rendered for absent values.
const NotAvailable = "N/A"

var printer = message.NewPrinter(language.AmericanEnglish)

// groupInt renders n with locale thousand separators.
func groupInt(n int64) string {
	return printer.Sprint(number.Decimal(n))
}

// Currency renders a USD amount with grouping and two decimals:
// 1000 -> "$1,000.00". Nil renders as "N/A".
func Currency(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	amount := *v
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	cents := int64(math.Round(amount * 100))
	return fmt.Sprintf("%s$%s.%02d", sign, groupInt(cents/100), cents%100)
}

// BSR renders a best-sellers rank: 100 -> "#100", 12345 -> "#12,345".
func BSR(rank *int) string {
	if rank == nil {
		return NotAvailable
	}
	return "#" + groupInt(int64(*rank))
}

// Rating renders a star rating to one decimal: 4.5 -> "4.5 ★".
func Rating(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f ★", *v)
}

// PercentChange renders a relative change with an explicit sign:
// 5.25 -> "+5.3%", -3.1 -> "-3.1%".
func PercentChange(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%+.1f%%", *v)
}

// Color names the presentation color classes for a change indicator.
type Color string

const (
	ColorPositive Color = "green"
	ColorNegative Color = "red"
	ColorNeutral  Color = "gray"
)

// ChangeColor maps a change to its indicator color. For most metrics an
// increase is good; metrics where lower is better (BSR) invert the mapping,
// so a falling rank still shows green.
func ChangeColor(change float64, lowerIsBetter bool) Color {
	if change == 0 {
		return ColorNeutral
	}
	improved := change > 0
	if lowerIsBetter {
		improved = !improved
	}
	if improved {
		return ColorPositive
	}
	return ColorNegative
}
