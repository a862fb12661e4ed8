package layout

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type measureFunc func(s string) float64

type wrappedLine struct {
	Text  string
	Width float64 // 不含行尾悬挂空白
}

// greedyWrapLine 对单个源文本行执行“单词边界优先，必要时词内断行”的贪心折行。
// 溢出的空白挂在当前行末尾，不会出现在下一行行首。空行返回一个空的视觉行。
func greedyWrapLine(content string, limit float64, measure measureFunc) []wrappedLine {
	if limit <= 0 {
		return []wrappedLine{{Text: content, Width: measure(strings.TrimRightFunc(content, unicode.IsSpace))}}
	}

	var lines []wrappedLine
	var builder strings.Builder
	currentWidth := 0.0
	visibleWidth := 0.0

	emit := func() {
		lines = append(lines, wrappedLine{Text: builder.String(), Width: visibleWidth})
		builder.Reset()
		currentWidth = 0
		visibleWidth = 0
	}

	appendToken := func(token string, width float64, space bool) {
		builder.WriteString(token)
		currentWidth += width
		if !space {
			visibleWidth = currentWidth
		}
	}

	for _, token := range tokenizeContent(content) {
		tokenWidth := measure(token)
		space := isSpaceToken(token)

		if space {
			// 行首缩进照常占位；其余空白即使溢出也留在本行。
			appendToken(token, tokenWidth, true)
			continue
		}

		if currentWidth > 0 && currentWidth+tokenWidth > limit {
			emit()
		}
		if tokenWidth <= limit {
			appendToken(token, tokenWidth, false)
			continue
		}

		for _, chunk := range splitTokenByWidth(token, limit, measure) {
			chunkWidth := measure(chunk)
			if currentWidth > 0 && currentWidth+chunkWidth > limit {
				emit()
			}
			appendToken(chunk, chunkWidth, false)
		}
	}

	if builder.Len() > 0 || len(lines) == 0 {
		emit()
	}
	return lines
}

// tokenizeContent splits s into alternating runs of whitespace and non-whitespace.
func tokenizeContent(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func isSpaceToken(token string) bool {
	r, _ := utf8.DecodeRuneInString(token)
	return unicode.IsSpace(r)
}

// splitTokenByWidth breaks a word into chunks no wider than limit. A single
// rune wider than limit forms its own chunk.
func splitTokenByWidth(token string, limit float64, measure measureFunc) []string {
	var parts []string
	var current []rune
	for _, r := range token {
		current = append(current, r)
		if len(current) > 1 && measure(string(current)) > limit {
			parts = append(parts, string(current[:len(current)-1]))
			current = current[len(current)-1:]
		}
	}
	if len(current) > 0 {
		parts = append(parts, string(current))
	}
	return parts
}
