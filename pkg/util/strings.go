package util

import "strings"

// NormalizeSymbol upper-cases and trims a ticker such as " 2330.tw ".
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
