package validators

import "strings"

// SanitizeString trims input and truncates it to maxLen bytes without splitting a rune.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 || len(trimmed) <= maxLen {
		return trimmed
	}
	cut := maxLen
	for cut > 0 && !isRuneStart(trimmed[cut]) {
		cut--
	}
	return trimmed[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
