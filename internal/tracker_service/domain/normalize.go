package domain

import (
	"fmt"
	"strings"
)

// minPhoneDigits is the digit count below which input is treated as "not a
// phone number" rather than a malformed one. Callers use the distinction to
// decide between rejection and fallthrough behavior.
const minPhoneDigits = 7

// DigitsOnly strips every non-digit character from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhoneNumber converts a raw Russian mobile number in any common
// spelling into the canonical "+7 999 888 77 66" form.
//
// Accepted shapes after stripping separators: +7XXXXXXXXXX, 8XXXXXXXXXX,
// 7XXXXXXXXXX, or bare XXXXXXXXXX where X is ten digits starting with 9.
// Every spelling of the same number normalizes byte-for-byte identically,
// and normalizing a canonical form yields itself.
//
// Returns ErrNotPhoneNumber when fewer than seven digits are present, and
// ErrInvalidNumber for anything else that does not denote a valid number.
func NormalizePhoneNumber(raw string) (string, error) {
	digits := DigitsOnly(raw)
	if len(digits) < minPhoneDigits {
		return "", fmt.Errorf("%w: %q", ErrNotPhoneNumber, raw)
	}

	// 89651091162 / 79651091162 -> 9651091162
	if len(digits) == 11 && (digits[0] == '8' || digits[0] == '7') {
		digits = digits[1:]
	}

	if len(digits) != 10 || digits[0] != '9' {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}

	return fmt.Sprintf("+7 %s %s %s %s", digits[0:3], digits[3:6], digits[6:8], digits[8:10]), nil
}
