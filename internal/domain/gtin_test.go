package domain

import "testing"

func TestNormalizeGTIN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"gtin-13 passes through", "0628915000017", "0628915000017"},
		{"gtin-14 passes through", "00628915000017", "00628915000017"},
		{"gtin-12 passes through", "628915000017", "628915000017"},
		{"gtin-8 passes through", "62891500", "62891500"},
		{"spreadsheet float artifact", "628915000017.0", "628915000017"},
		{"leading zeros survive", "0062891500001.0", "0062891500001"},
		{"whitespace trimmed", "  628915000017  ", "628915000017"},
		{"nan sentinel", "nan", ""},
		{"NaN sentinel uppercase", "NaN", ""},
		{"none sentinel", "None", ""},
		{"null sentinel", "null", ""},
		{"empty string", "", ""},
		{"wrong length", "12345", ""},
		{"non-numeric", "ABC915000017", ""},
		{"embedded letters", "6289150000x7", ""},
		{"bare period", ".", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeGTIN(tt.in); got != tt.want {
				t.Errorf("NormalizeGTIN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatchKindValid(t *testing.T) {
	for _, kind := range []MatchKind{MatchKindExactGTIN, MatchKindUserCorrection, MatchKindFuzzy} {
		if !kind.Valid() {
			t.Errorf("MatchKind(%q).Valid() = false, want true", kind)
		}
	}
	if MatchKind("guess").Valid() {
		t.Error("MatchKind(\"guess\").Valid() = true, want false")
	}
}
