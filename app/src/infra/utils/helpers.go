package utils

import "strings"

func EmptyFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// SplitList splits a comma separated list, dropping blank items.
func SplitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
