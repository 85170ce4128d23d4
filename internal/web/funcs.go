package web

import (
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	"estudio/internal/forms"
)

var spanishMonths = [...]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// MonthLabel returns the short Spanish name of m.
func MonthLabel(m time.Month) string { return spanishMonths[m-1] }

// Money formats a peso amount as "$1.234.567".
func Money(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02-01-2006")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func inputDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(forms.DateLayout)
}

func optID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

var funcs = template.FuncMap{
	"fecha":      formatDate,
	"fechaPtr":   formatDatePtr,
	"fechaInput": inputDate,
	"monto":      Money,
	"rut":        forms.FormatRUT,
	"optID":      optID,
	"mes":        MonthLabel,
}
