package types

import "strings"

// SplitProviderModel parses a "provider,model" pair, splitting on the first
// comma. Both halves must be non-empty after trimming.
func SplitProviderModel(s string) (provider, model string, ok bool) {
	comma := strings.Index(s, ",")
	if comma < 0 {
		return "", "", false
	}
	provider = strings.TrimSpace(s[:comma])
	model = strings.TrimSpace(s[comma+1:])
	if provider == "" || model == "" {
		return "", "", false
	}
	return provider, model, true
}
