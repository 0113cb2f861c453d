package service

import "strings"

// DefaultCountryCode is Kenya's calling code.
const DefaultCountryCode = "254"

// NormalizePhone converts a national or international number into E.164 for
// the given calling code:
//
//	0712345678     -> +254712345678
//	254712345678   -> +254712345678
//	+254712345678  -> +254712345678
//	712345678      -> +254712345678
//
// Anything else is assumed to be missing its calling code.
func NormalizePhone(phone, countryCode string) string {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	digits := onlyDigits(phone)
	if digits == "" {
		return ""
	}
	national := nationalLength(countryCode)

	switch {
	case strings.HasPrefix(digits, "0") && len(digits) == national+1:
		return "+" + countryCode + digits[1:]
	case strings.HasPrefix(digits, countryCode) && len(digits) == len(countryCode)+national:
		return "+" + digits
	default:
		return "+" + countryCode + digits
	}
}

// MSISDN returns the number without the leading "+", as mobile-money
// gateways expect (254712345678).
func MSISDN(phone, countryCode string) string {
	return strings.TrimPrefix(NormalizePhone(phone, countryCode), "+")
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// nationalLength is the subscriber number length without trunk prefix.
func nationalLength(countryCode string) int {
	switch countryCode {
	case "1":
		return 10
	default:
		return 9
	}
}
