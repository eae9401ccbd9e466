package common

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FormatUserList joins names for display, or returns "No one" when empty
func FormatUserList(users []string) string {
	if len(users) == 0 {
		return "No one"
	}
	return strings.Join(users, ", ")
}

// FormatRecord formats wins and losses with the win rate
func FormatRecord(wins, losses int) string {
	total := wins + losses
	if total == 0 {
		return "0W / 0L"
	}
	return fmt.Sprintf("%dW / %dL (%.1f%%)", wins, losses, float64(wins)/float64(total)*100)
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
