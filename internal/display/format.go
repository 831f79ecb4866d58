package display

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/simp-lee/ruelucas/internal/domain"
)

var (
	frPrinter = message.NewPrinter(language.French)
	eurFormat = eurPattern()
)

// eurPattern builds a format with the standard number of decimals for EUR.
func eurPattern() string {
	scale, _ := currency.Standard.Rounding(currency.EUR)
	return fmt.Sprintf("%%.%df", scale)
}

// euroSuffix separates the amount from the sign with a no-break space.
const euroSuffix = "\u00a0€"

// FormatCurrency formats amount the French way, e.g. "1 234,56 €".
func FormatCurrency(amount float64) string {
	return frPrinter.Sprintf(eurFormat, amount) + euroSuffix
}

// FormatRating formats an average rating with one decimal, e.g. "4,5".
func FormatRating(avg float64) string {
	return frPrinter.Sprintf("%.1f", avg)
}

var frMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// ParseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(domain.DateLayout, s)
}

// FormatDate formats t as DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatLongDate formats t as "2 janvier 2024".
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), frMonths[t.Month()-1], t.Year())
}

// ShortDate formats a wire date as DD/MM/YYYY, or returns it unchanged when
// it cannot be parsed.
func ShortDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return FormatDate(t)
}

// LongDate formats a wire date as "2 janvier 2024", or returns it unchanged
// when it cannot be parsed.
func LongDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return FormatLongDate(t)
}
