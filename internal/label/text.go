package label

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Ellipsis marks truncated single-line text.
const Ellipsis = "..."

// MeasureFunc reports the rendered width of s in pixels.
type MeasureFunc func(s string) float64

// Truncate shortens text until it fits max. Runes are dropped from the end
// until the text fits; if anything was dropped, the last three remaining
// runes are replaced by an ellipsis. Text that already fits is returned
// unchanged. When the ellipsis is wider than the runes it replaced, more
// runes are dropped so the result still fits, down to a shortened
// ellipsis or the empty string for very narrow slots.
func Truncate(measure MeasureFunc, text string, max float64) string {
	runes := []rune(text)
	n := len(runes)
	for n > 0 && measure(string(runes[:n])) > max {
		n--
	}
	if n == len(runes) {
		return text
	}

	keep := n - len(Ellipsis)
	if keep < 0 {
		keep = 0
	}
	for keep > 0 && measure(string(runes[:keep])+Ellipsis) > max {
		keep--
	}
	if keep > 0 {
		return string(runes[:keep]) + Ellipsis
	}

	// Nothing but the ellipsis is left; shorten it to what fits.
	dots := Ellipsis
	for dots != "" && measure(dots) > max {
		dots = dots[:len(dots)-1]
	}
	return dots
}

// Wrap breaks text into lines no wider than max using a greedy word fill:
// a line is closed when the next word would overflow it. A single word
// wider than max is truncated on its own line.
func Wrap(measure MeasureFunc, text string, max float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		candidate := line + " " + w
		if measure(candidate) > max {
			lines = append(lines, line)
			line = w
			continue
		}
		line = candidate
	}
	lines = append(lines, line)

	for i, l := range lines {
		if measure(l) > max {
			lines[i] = Truncate(measure, l, max)
		}
	}
	return lines
}

// FormatPrice renders a price as "<currency> 0.00".
func FormatPrice(currency string, price decimal.Decimal) string {
	if currency == "" {
		return price.StringFixed(2)
	}
	return currency + " " + price.StringFixed(2)
}
