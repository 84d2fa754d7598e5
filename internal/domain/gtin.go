package domain

import "strings"

// gtinLengths are the valid GTIN digit counts (GTIN-8/12/13/14).
var gtinLengths = map[int]bool{8: true, 12: true, 13: true, 14: true}

// NormalizeGTIN cleans a raw GTIN value as it arrives from spreadsheets and
// CSV exports. It strips the spreadsheet float artifact ("12345.0"), preserves
// leading zeros when the input already carries them, and validates that the
// result is 8, 12, 13, or 14 numeric digits. Returns "" for anything invalid;
// unknown identifiers are common and never an error.
func NormalizeGTIN(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}

	// Excel exports numeric cells as floats: "1234567890123.0". The integer
	// part is taken as-is so leading zeros survive.
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		s = s[:idx]
	}

	if !allDigits(s) {
		return ""
	}
	if !gtinLengths[len(s)] {
		return ""
	}
	return s
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
