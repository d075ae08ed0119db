package security_test

import (
	"errors"
	"testing"

	"github.com/velaphi/legal-assist/internal/domain"
	"github.com/velaphi/legal-assist/internal/security"
)

func TestValidateSourceURL(t *testing.T) {
	valid := []string{
		"https://example.com/act",
		"http://gov.za/popia.pdf",
		"https://www.justice.gov.za/legislation/acts/1999-050.pdf",
	}
	for _, u := range valid {
		if err := security.ValidateSourceURL(u); err != nil {
			t.Errorf("expected %q to be valid, got %v", u, err)
		}
	}

	invalid := []string{
		"",
		"   ",
		"not a url",
		"ftp://example.com/file",
		"file:///etc/passwd",
		"https://",
		"example.com/no-scheme",
	}
	for _, u := range invalid {
		err := security.ValidateSourceURL(u)
		if err == nil {
			t.Errorf("expected %q to be rejected", u)
			continue
		}
		if !errors.Is(err, domain.ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL for %q, got %v", u, err)
		}
	}
}
