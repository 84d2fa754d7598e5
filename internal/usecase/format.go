package usecase

import (
	"strconv"
	"strings"
)

// FormatUnit is the unit class recognized in a format string.
type FormatUnit string

const (
	UnitKilogram   FormatUnit = "kg"
	UnitGram       FormatUnit = "g"
	UnitLiter      FormatUnit = "l"
	UnitMilliliter FormatUnit = "ml"
	UnitCount      FormatUnit = "units"
	UnitUnknown    FormatUnit = "unknown"
)

// unitSpec maps a unit class to its spelling variants and the multiplier that
// converts one unit to the canonical magnitude (grams for weight, milliliters
// treated as grams for liquids, 1 for discrete counts).
type unitSpec struct {
	unit       FormatUnit
	names      []string
	multiplier float64
}

// unitTable is scanned in order; the first class with a match wins. The order
// is part of the contract: ambiguous strings must resolve identically every run.
var unitTable = []unitSpec{
	{UnitKilogram, []string{"kg", "kgs", "kilo", "kilos", "kilogram", "kilograms"}, 1000},
	{UnitGram, []string{"g", "gr", "gram", "grams"}, 1},
	{UnitLiter, []string{"l", "liter", "liters", "litre", "litres"}, 1000},
	{UnitMilliliter, []string{"ml", "milliliter", "milliliters", "millilitre", "millilitres"}, 1},
	{UnitCount, []string{"un", "unit", "units", "piece", "pieces", "pce", "pc"}, 1},
}

// formatToken is one lexeme of a format string: a number or a word.
type formatToken struct {
	text   string
	number float64
	isNum  bool
}

// tokenizeFormat splits a normalized format string into number and word
// tokens. Attached forms ("4x2kg") split at every digit/letter boundary.
func tokenizeFormat(text string) []formatToken {
	var tokens []formatToken
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c >= '0' && c <= '9':
			j := i
			for j < len(text) && (text[j] >= '0' && text[j] <= '9' || text[j] == '.') {
				j++
			}
			num, err := strconv.ParseFloat(strings.TrimRight(text[i:j], "."), 64)
			if err == nil {
				tokens = append(tokens, formatToken{text: text[i:j], number: num, isNum: true})
			}
			i = j
		case c >= 'a' && c <= 'z':
			j := i
			for j < len(text) && text[j] >= 'a' && text[j] <= 'z' {
				j++
			}
			tokens = append(tokens, formatToken{text: text[i:j]})
			i = j
		default:
			i++
		}
	}
	return tokens
}

// ExtractFormat parses a size/quantity expression out of a format string,
// falling back to the product name when the format field yields nothing.
// Recognized shapes are "count x size unit", "count size unit", and
// "size unit" (count defaults to 1). The result is a canonical magnitude
// (grams, or a raw count for discrete units) plus the unit class, or
// (0, UnitUnknown) when nothing parses.
func ExtractFormat(format, name string) (float64, FormatUnit) {
	tokens := tokenizeFormat(NormalizeText(format + " " + name))
	if len(tokens) == 0 {
		return 0, UnitUnknown
	}

	for _, spec := range unitTable {
		if magnitude, ok := matchUnit(tokens, spec); ok {
			return magnitude, spec.unit
		}
	}
	return 0, UnitUnknown
}

// matchUnit scans the token stream for the first quantity expression ending in
// one of the spec's unit names.
func matchUnit(tokens []formatToken, spec unitSpec) (float64, bool) {
	for i, tok := range tokens {
		if !tok.isNum {
			continue
		}

		// count x size unit
		if i+3 < len(tokens) &&
			tokens[i+1].text == "x" &&
			tokens[i+2].isNum &&
			spec.hasName(tokens[i+3].text) {
			return tok.number * tokens[i+2].number * spec.multiplier, true
		}

		// count size unit (the x is optional)
		if i+2 < len(tokens) &&
			tokens[i+1].isNum &&
			spec.hasName(tokens[i+2].text) {
			return tok.number * tokens[i+1].number * spec.multiplier, true
		}

		// size unit
		if i+1 < len(tokens) && spec.hasName(tokens[i+1].text) {
			return tok.number * spec.multiplier, true
		}
	}
	return 0, false
}

func (s unitSpec) hasName(word string) bool {
	for _, n := range s.names {
		if n == word {
			return true
		}
	}
	return false
}
