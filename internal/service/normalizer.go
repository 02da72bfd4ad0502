package service

import (
	"regexp"
	"strings"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonDigitRegex   = regexp.MustCompile(`\D+`)
	pinRegex        = regexp.MustCompile(`^\d{4}$`)
)

const countryPrefix = "88"

// normalizePhone strips formatting and the country prefix so "+88 017-1234-5678"
// becomes "01712345678".
func normalizePhone(phone string) string {
	phone = nonDigitRegex.ReplaceAllString(strings.TrimSpace(phone), "")
	if len(phone) == 13 && strings.HasPrefix(phone, countryPrefix) {
		phone = phone[len(countryPrefix):]
	}
	return phone
}

func validPhone(phone string) bool {
	return len(phone) == 11 && strings.HasPrefix(phone, "01")
}

func validPIN(pin string) bool {
	return pinRegex.MatchString(pin)
}

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}
