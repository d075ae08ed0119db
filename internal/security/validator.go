package security

import (
	"net/url"
	"strings"

	"github.com/velaphi/legal-assist/internal/domain"
)

// ValidateSourceURL checks a knowledge-source URL before ingestion. Only
// absolute http(s) URLs with a host are accepted.
func ValidateSourceURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return domain.ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return domain.ErrInvalidURL
	}
	if u.Host == "" {
		return domain.ErrInvalidURL
	}

	return nil
}
