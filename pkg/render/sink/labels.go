package sink

import "strings"

const (
	labelLineChars = 15
	labelMaxLines  = 2
	labelTailChars = 12
	labelEllipsis  = "..."
)

// WrapLabel breaks name into lines of at most 15 characters at word
// boundaries. Words longer than a line are cut. When more than two lines
// result, the second line is cut to 12 characters followed by "...".
func WrapLabel(name string) []string {
	var lines []string
	var cur []rune
	for _, word := range strings.Fields(name) {
		w := []rune(word)
		switch {
		case len(cur) == 0:
		case len(cur)+1+len(w) <= labelLineChars:
			cur = append(cur, ' ')
			cur = append(cur, w...)
			continue
		default:
			lines = append(lines, string(cur))
		}
		for len(w) > labelLineChars {
			lines = append(lines, string(w[:labelLineChars]))
			w = w[labelLineChars:]
		}
		cur = w
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}

	if len(lines) > labelMaxLines {
		lines = lines[:labelMaxLines]
		second := []rune(lines[1])
		if len(second) > labelTailChars {
			second = second[:labelTailChars]
		}
		lines[1] = string(second) + labelEllipsis
	}
	return lines
}
