// Package formatter holds the pure string transforms applied to form input:
// tax identifiers, phone numbers and currency values. Formatters never fail;
// input that does not fit a known pattern passes through untouched after
// digit stripping. Rejection is the validator's job.
package formatter

import (
	"strings"
)

// Digits strips everything but decimal digits.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Document formats a tax identifier: 11 digits as CPF (000.000.000-00),
// 14 digits as CNPJ (00.000.000/0000-00). Any other digit count is returned
// as bare digits.
func Document(s string) string {
	d := Digits(s)
	switch len(d) {
	case 11:
		return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
	case 14:
		return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
	default:
		return d
	}
}

// Phone formats a Brazilian phone number: 10 digits as fixed line
// (00) 0000-0000, 11 digits as mobile (00) 00000-0000. Any other digit
// count is returned as bare digits.
func Phone(s string) string {
	d := Digits(s)
	switch len(d) {
	case 10:
		return "(" + d[0:2] + ") " + d[2:6] + "-" + d[6:10]
	case 11:
		return "(" + d[0:2] + ") " + d[2:7] + "-" + d[7:11]
	default:
		return d
	}
}

// Currency renders a digit string as a localized monetary display value,
// treating the last two digits as cents: "123456" -> "R$ 1.234,56".
// An empty digit string renders as "R$ 0,00".
func Currency(s string) string {
	d := Digits(s)
	for len(d) < 3 {
		d = "0" + d
	}
	intPart := strings.TrimLeft(d[:len(d)-2], "0")
	if intPart == "" {
		intPart = "0"
	}
	cents := d[len(d)-2:]

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	return "R$ " + strings.Join(groups, ".") + "," + cents
}

// CurrencyValue converts a display string back to a numeric value at submit
// time. The second return is false when the input carries no digits at all,
// which callers treat as "not informed" rather than zero.
func CurrencyValue(s string) (float64, bool) {
	d := Digits(s)
	if d == "" {
		return 0, false
	}
	var v float64
	for _, r := range d {
		v = v*10 + float64(r-'0')
	}
	return v / 100, true
}

// CEP formats an 8-digit postal code as 00000-000; other digit counts pass
// through as bare digits.
func CEP(s string) string {
	d := Digits(s)
	if len(d) != 8 {
		return d
	}
	return d[0:5] + "-" + d[5:8]
}
