package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const phoneRegion = "AR"

// NormalizePhone returns an Argentine mobile number as bare digits with the
// 549 prefix, the format WhatsApp deep links expect. Numbers that cannot be
// parsed fall back to a digits-only best effort.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	if parsed, err := phonenumbers.Parse(phone, phoneRegion); err == nil {
		digits := strings.TrimPrefix(phonenumbers.Format(parsed, phonenumbers.E164), "+")
		return withMobilePrefix(digits)
	}

	return withMobilePrefix(digitsOnly(phone))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// withMobilePrefix ensures the 549 mobile prefix. Argentine mobiles carry a
// 9 between the country code and the area code.
func withMobilePrefix(digits string) string {
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "549") {
		return digits
	}
	if strings.HasPrefix(digits, "54") {
		return "549" + digits[2:]
	}
	digits = strings.TrimPrefix(digits, "0")
	return "549" + digits
}
