package bulkimport

import (
	"strings"
	"unicode/utf8"
)

// normalize trims, collapses internal whitespace and truncates to maxLen runes.
func normalize(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		s = strings.TrimSpace(string([]rune(s)[:maxLen]))
	}
	return s
}

var multiValueSeparators = strings.NewReplacer("\r\n", "\n", "\r", "\n", ",", "\n", "/", "\n")

// splitMulti splits a multi-value contact cell on comma, slash and line
// breaks. Positions are preserved so lists from sibling cells stay aligned;
// only trailing empty entries are dropped.
func splitMulti(cell string, maxLen int) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(multiValueSeparators.Replace(cell), "\n")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = normalize(p, maxLen)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1":
		return true
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func groupKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func clientKey(group, client string) string {
	return groupKey(group) + "\x1f" + strings.ToLower(strings.TrimSpace(client))
}
