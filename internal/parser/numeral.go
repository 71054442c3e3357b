package parser

import "strings"

// numeralReplacer maps Arabic-Indic digits and the Arabic thousands/decimal
// separators onto their Western equivalents.
var numeralReplacer = strings.NewReplacer(
	"٠", "0",
	"١", "1",
	"٢", "2",
	"٣", "3",
	"٤", "4",
	"٥", "5",
	"٦", "6",
	"٧", "7",
	"٨", "8",
	"٩", "9",
	"٬", ",",
	"٫", ".",
)

// NormalizeNumerals rewrites localized numerals to Western digits. All other
// characters pass through. The boolean is false for empty input.
func NormalizeNumerals(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	return numeralReplacer.Replace(text), true
}
