package utils

import "strings"

// NormalizePhoneNumber converts a raw contact-list entry to E.164 form.
// defaultCountryCode is a calling code without the plus sign (e.g. "82").
//
// Rules: strip all formatting, honor an existing international prefix
// ("+82..." or "0082..."), otherwise drop one national trunk zero and
// prepend the default country code. Returns "" when the input has no
// usable digits.
func NormalizePhoneNumber(raw, defaultCountryCode string) string {
	trimmed := strings.TrimSpace(raw)
	international := strings.HasPrefix(trimmed, "+")

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	number := digits.String()
	if number == "" {
		return ""
	}

	// "00" dialing prefix is an international marker too
	if !international && strings.HasPrefix(number, "00") {
		international = true
		number = strings.TrimPrefix(number, "00")
	}

	if international {
		if len(number) < 4 {
			return ""
		}
		return "+" + number
	}

	// National format: drop the trunk zero before applying the country code
	number = strings.TrimPrefix(number, "0")
	if number == "" || defaultCountryCode == "" {
		return ""
	}

	return "+" + defaultCountryCode + number
}

// NormalizePhoneNumbers maps a contact list to E.164, dropping entries that
// cannot be normalized. Order is preserved, duplicates removed.
func NormalizePhoneNumbers(raws []string, defaultCountryCode string) []string {
	seen := make(map[string]bool, len(raws))
	normalized := make([]string, 0, len(raws))
	for _, raw := range raws {
		number := NormalizePhoneNumber(raw, defaultCountryCode)
		if number == "" || seen[number] {
			continue
		}
		seen[number] = true
		normalized = append(normalized, number)
	}
	return normalized
}
