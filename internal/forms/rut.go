package forms

import (
	"strconv"
	"strings"
)

// NormalizeRUT strips formatting from the number and upper-cases the check digit.
func NormalizeRUT(num, dv string) (string, string) {
	num = strings.NewReplacer(".", "", " ", "", "-", "").Replace(strings.TrimSpace(num))
	num = strings.TrimLeft(num, "0")
	return num, strings.ToUpper(strings.TrimSpace(dv))
}

// CheckDigit computes the modulo 11 verifier for a RUT number.
func CheckDigit(num string) (string, bool) {
	if num == "" {
		return "", false
	}
	sum, factor := 0, 2
	for i := len(num) - 1; i >= 0; i-- {
		d := num[i]
		if d < '0' || d > '9' {
			return "", false
		}
		sum += int(d-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch r := 11 - sum%11; r {
	case 11:
		return "0", true
	case 10:
		return "K", true
	default:
		return strconv.Itoa(r), true
	}
}

func ValidRUT(num, dv string) bool {
	num, dv = NormalizeRUT(num, dv)
	want, ok := CheckDigit(num)
	return ok && want == dv
}

// FormatRUT renders 12345678, "5" as 12.345.678-5.
func FormatRUT(num, dv string) string {
	num, dv = NormalizeRUT(num, dv)
	if num == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range num {
		if i > 0 && (len(num)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if dv != "" {
		b.WriteString("-" + dv)
	}
	return b.String()
}

func validDV(dv string) bool {
	dv = strings.ToUpper(strings.TrimSpace(dv))
	return len(dv) == 1 && (dv == "K" || (dv[0] >= '0' && dv[0] <= '9'))
}
