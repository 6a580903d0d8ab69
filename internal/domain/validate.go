package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	// MaxConfigSize caps submitted YAML documents.
	MaxConfigSize = 1 << 20 // 1 MB

	// MaxUploadSpeed is the highest serial baud rate esphome accepts.
	MaxUploadSpeed = 4_000_000
)

var substitutionKeyRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateOptions checks the untrusted option values before they are ever
// turned into command-line arguments. It does not care which operation the
// options are for; inapplicable options are simply ignored downstream.
func (o *Options) Validate() error {
	if o.Device != "" {
		if strings.HasPrefix(o.Device, "-") {
			return fmt.Errorf("%w: must not start with '-'", ErrInvalidDevice)
		}
		if hasUnsafeRune(o.Device) {
			return fmt.Errorf("%w: contains whitespace or control characters", ErrInvalidDevice)
		}
	}
	if o.UploadSpeed < 0 || o.UploadSpeed > MaxUploadSpeed {
		return fmt.Errorf("%w: %d (must be 0 for unset, or 1..%d)", ErrInvalidUploadSpeed, o.UploadSpeed, MaxUploadSpeed)
	}
	for k, v := range o.Substitutions {
		if !substitutionKeyRe.MatchString(k) {
			return fmt.Errorf("%w: key %q", ErrInvalidSubstitution, k)
		}
		for _, r := range v {
			if unicode.IsControl(r) {
				return fmt.Errorf("%w: value for %q contains control characters", ErrInvalidSubstitution, k)
			}
		}
	}
	return nil
}

func hasUnsafeRune(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return true
		}
	}
	return false
}
