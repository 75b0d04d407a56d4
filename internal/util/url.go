package util

import (
	"fmt"
	"net/url"
	"strings"
)

// NormaliseDomain removes http/https prefix and www. from domain
func NormaliseDomain(domain string) string {
	// Remove http:// or https:// prefix if present
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "https://")

	// Remove www. prefix if present
	domain = strings.TrimPrefix(domain, "www.")

	// Remove trailing slash if present
	domain = strings.TrimSuffix(domain, "/")

	return strings.ToLower(domain)
}

// ValidateDomain checks if a domain string is a valid domain format.
// Returns an error describing why the domain is invalid, or nil if valid.
func ValidateDomain(domain string) error {
	// Normalise first
	domain = NormaliseDomain(domain)

	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}

	// Must contain at least one dot (for TLD)
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("domain must contain a TLD (e.g., .com, .co.uk)")
	}

	// Split into parts and validate each
	parts := strings.Split(domain, ".")
	for _, part := range parts {
		if part == "" {
			return fmt.Errorf("domain contains empty segment")
		}

		// Check for valid characters (alphanumeric and hyphens)
		for _, c := range part {
			isLower := c >= 'a' && c <= 'z'
			isUpper := c >= 'A' && c <= 'Z'
			isDigit := c >= '0' && c <= '9'
			isHyphen := c == '-'
			if !isLower && !isUpper && !isDigit && !isHyphen {
				return fmt.Errorf("domain contains invalid character: %c", c)
			}
		}

		// Cannot start or end with hyphen
		if strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return fmt.Errorf("domain segment cannot start or end with hyphen")
		}
	}

	// TLD must be at least 2 characters
	tld := parts[len(parts)-1]
	if len(tld) < 2 {
		return fmt.Errorf("TLD must be at least 2 characters")
	}

	return nil
}

// Hostname extracts the lowercased hostname of a URL, or "" when the
// URL does not parse.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// MatchesDomain reports whether host is the given domain or one of its
// subdomains. The domain is normalised first, so "www.example.com/" and
// "example.com" behave identically.
func MatchesDomain(host, domain string) bool {
	domain = NormaliseDomain(domain)
	if domain == "" {
		return false
	}
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// MatchesAny reports whether host matches any of the given domains.
func MatchesAny(host string, domains []string) bool {
	for _, d := range domains {
		if MatchesDomain(host, d) {
			return true
		}
	}
	return false
}
