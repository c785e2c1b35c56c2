// Package tree provides path addressing over nested map data: flat rows,
// parsed flexform trees and collected attachment groups all share the same
// "/"-delimited key syntax.
package tree

import "strings"

// Delimiter separates path segments.
const Delimiter = "/"

// Split separates a full mapping address such as "flex/data/sDEF/lDEF/header/vDEF"
// into its address type ("flex") and the path inside that space. It reports
// false when the address contains no delimiter.
func Split(full string) (string, string, bool) {
	addrType, path, found := strings.Cut(full, Delimiter)
	if !found {
		return "", "", false
	}
	return addrType, path, true
}

// LastSegment returns the final segment of path.
func LastSegment(path, delim string) (string, bool) {
	if path == "" {
		return "", false
	}
	if delim == "" {
		delim = Delimiter
	}
	parts := strings.Split(path, delim)
	return parts[len(parts)-1], true
}

// RemoveLastSegment drops the final segment of path and returns what is left.
// It reports false when path is empty or nothing remains.
func RemoveLastSegment(path, delim string) (string, bool) {
	if path == "" {
		return "", false
	}
	if delim == "" {
		delim = Delimiter
	}
	idx := strings.LastIndex(path, delim)
	if idx <= 0 {
		return "", false
	}
	return path[:idx], true
}

func segments(path, delim string) []string {
	if delim == "" {
		delim = Delimiter
	}
	return strings.Split(path, delim)
}
