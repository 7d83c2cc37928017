package common

import "strings"

// ContainsAnyFold reports whether s contains any of the substrings, ignoring case.
// Empty substrings never match.
func ContainsAnyFold(s string, subs ...string) bool {
	upper := strings.ToUpper(s)
	for _, sub := range subs {
		if sub == "" {
			continue
		}
		if strings.Contains(upper, strings.ToUpper(sub)) {
			return true
		}
	}
	return false
}
