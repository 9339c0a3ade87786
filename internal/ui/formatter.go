package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

func PadRight(str string, width int) string {
	w := runewidth.StringWidth(str)
	if w < width {
		return str + strings.Repeat(" ", width-w)
	}
	return str
}

// TruncateLeft keeps the end of str, which for file paths is the informative part
func TruncateLeft(str string, width int) string {
	if runewidth.StringWidth(str) <= width {
		return str
	}
	if width <= 3 {
		return runewidth.Truncate(str, width, "")
	}
	runes := []rune(str)
	w := 0
	i := len(runes)
	for i > 0 {
		rw := runewidth.RuneWidth(runes[i-1])
		if w+rw > width-3 {
			break
		}
		w += rw
		i--
	}
	return "..." + string(runes[i:])
}
