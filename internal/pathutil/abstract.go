package pathutil

import (
	"errors"
	"fmt"
	"strings"
)

// Bounds on the scheme length accepted by IsLikelyURI. Single letter schemes
// are treated as drive letters rather than URIs.
const (
	minSchemeLen = 2
	maxSchemeLen = 36
)

// IsLikelyURI reports whether s looks like "scheme:..." rather than a path.
func IsLikelyURI(s string) bool {
	if s == "" || strings.HasPrefix(s, Separator) {
		return false
	}
	pos := strings.IndexByte(s, ':')
	if pos < minSchemeLen || pos > maxSchemeLen {
		return false
	}
	return isValidScheme(s[:pos])
}

func isValidScheme(s string) bool {
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return s != ""
}

// RemoveTrailingSlash strips every trailing separator from s.
func RemoveTrailingSlash(s string) string {
	return strings.TrimRight(s, Separator)
}

// HasTrailingSlash reports whether s ends in a separator.
func HasTrailingSlash(s string) bool {
	return strings.HasSuffix(s, Separator)
}

// SplitAbstractPath splits s on every separator. An empty string has no parts.
func SplitAbstractPath(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, Separator)
}

// JoinAbstractPath joins parts with the separator.
func JoinAbstractPath(parts []string) string {
	return strings.Join(parts, Separator)
}

// ValidateAbstractPathParts rejects empty components and the relative
// components "." and "..".
func ValidateAbstractPathParts(parts []string) error {
	for _, part := range parts {
		switch part {
		case "":
			return errors.New("empty path component")
		case ".", "..":
			return fmt.Errorf("relative path component '%s' is not allowed", part)
		}
	}
	return nil
}
