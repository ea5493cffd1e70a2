package platform

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

const (
	maxDatabaseName = 64
	maxDatabaseUser = 32
	hashLen         = 12
)

// NormalizeDomain lowercases a domain and strips surrounding whitespace and
// a trailing dot.
func NormalizeDomain(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}

// ValidDomain reports whether domain is a fully qualified hostname with at
// least two labels. Labels are 1-63 characters of letters, digits and
// hyphens with no leading or trailing hyphen; the total is at most 253.
func ValidDomain(domain string) bool {
	if domain == "" || len(domain) > 253 {
		return false
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if !validLabel(label) {
			return false
		}
	}
	return true
}

func validLabel(label string) bool {
	n := len(label)
	if n == 0 || n > 63 {
		return false
	}
	if label[0] == '-' || label[n-1] == '-' {
		return false
	}
	for _, c := range label {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-') {
			return false
		}
	}
	return true
}

// DatabaseName derives the MySQL database name for a domain:
// "wp_" + domain with dots replaced by "_". Domains containing "-", and
// names longer than 64 bytes, get a "__" + hash suffix instead of the plain
// form, so two domains never share a name.
func DatabaseName(domain string) string {
	return deriveName(domain, maxDatabaseName)
}

// DatabaseUser derives the MySQL user name for a domain. It equals
// DatabaseName unless that exceeds MySQL's 32 byte user name limit.
func DatabaseUser(domain string) string {
	return deriveName(domain, maxDatabaseUser)
}

func deriveName(domain string, max int) string {
	domain = NormalizeDomain(domain)
	name := identifier(domain)
	// "-" and "." both map to "_", so only dot-separated domains keep the
	// plain name. Plain names never contain "__".
	if !strings.Contains(domain, "-") && len(name) <= max {
		return name
	}
	sum := sha1.Sum([]byte(domain))
	suffix := "__" + hex.EncodeToString(sum[:])[:hashLen]
	if len(name) > max-len(suffix) {
		name = name[:max-len(suffix)]
	}
	return name + suffix
}

func identifier(domain string) string {
	var b strings.Builder
	b.WriteString("wp_")
	for _, c := range domain {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
