package layout

// DigitCount returns the number of decimal digits in max(1, n).
func DigitCount(n int) int {
	if n < 1 {
		n = 1
	}
	digits := 1
	for n >= 10 {
		n /= 10
		digits++
	}
	return digits
}

// GutterWidth is the line-number column width for a document of lineCount
// lines: padding on both sides of the widest number.
func GutterWidth(lineCount int, m Metrics) float64 {
	return 2*m.GutterPadding + float64(DigitCount(lineCount))*m.DigitWidth
}

// GutterWidthFor returns 0 when line numbers are disabled.
func GutterWidthFor(enabled bool, lineCount int, m Metrics) float64 {
	if !enabled {
		return 0
	}
	return GutterWidth(lineCount, m)
}
