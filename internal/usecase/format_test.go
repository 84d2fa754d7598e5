package usecase

import "testing"

func TestExtractFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		product string
		wantQty float64
		wantU   FormatUnit
	}{
		{"simple kilograms", "2 KG", "", 2000, UnitKilogram},
		{"simple grams", "454 G", "", 454, UnitGram},
		{"count x size attached", "4X2KG", "", 8000, UnitKilogram},
		{"count x size spaced", "4 X 2 KG", "", 8000, UnitKilogram},
		{"count size without x", "12 454 G", "", 5448, UnitGram},
		{"liters", "2 L", "", 2000, UnitLiter},
		{"milliliters", "750 ML", "", 750, UnitMilliliter},
		{"discrete units", "24 UN", "", 24, UnitCount},
		{"decimal size", "1.5 KG", "", 1500, UnitKilogram},
		{"falls back to product name", "", "YOGOURT IOGO 12X100G", 1200, UnitGram},
		{"format field wins over name", "2 KG", "YOGOURT 100 G", 2000, UnitKilogram},
		{"nothing parseable", "GRAND", "YOGOURT", 0, UnitUnknown},
		{"empty everything", "", "", 0, UnitUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty, unit := ExtractFormat(tt.format, tt.product)
			if qty != tt.wantQty || unit != tt.wantU {
				t.Errorf("ExtractFormat(%q, %q) = (%v, %v), want (%v, %v)",
					tt.format, tt.product, qty, unit, tt.wantQty, tt.wantU)
			}
		})
	}
}

func TestExtractFormatDeterministic(t *testing.T) {
	// "2 L" could read as liters; it must never drift between runs.
	for i := 0; i < 100; i++ {
		qty, unit := ExtractFormat("2 L", "")
		if qty != 2000 || unit != UnitLiter {
			t.Fatalf("run %d: ExtractFormat(\"2 L\") = (%v, %v), want (2000, l)", i, qty, unit)
		}
	}
}

func TestUnitTableOrder(t *testing.T) {
	// Weight classes come before volume and count classes so ambiguous strings
	// resolve the same way every run.
	wantOrder := []FormatUnit{UnitKilogram, UnitGram, UnitLiter, UnitMilliliter, UnitCount}
	if len(unitTable) != len(wantOrder) {
		t.Fatalf("unitTable has %d classes, want %d", len(unitTable), len(wantOrder))
	}
	for i, spec := range unitTable {
		if spec.unit != wantOrder[i] {
			t.Errorf("unitTable[%d] = %v, want %v", i, spec.unit, wantOrder[i])
		}
	}
}

func TestTokenizeFormat(t *testing.T) {
	tokens := tokenizeFormat("4x2kg")
	if len(tokens) != 4 {
		t.Fatalf("tokenizeFormat(\"4x2kg\") produced %d tokens, want 4", len(tokens))
	}
	if !tokens[0].isNum || tokens[0].number != 4 {
		t.Errorf("token 0 = %+v, want number 4", tokens[0])
	}
	if tokens[1].text != "x" {
		t.Errorf("token 1 = %+v, want word \"x\"", tokens[1])
	}
	if !tokens[2].isNum || tokens[2].number != 2 {
		t.Errorf("token 2 = %+v, want number 2", tokens[2])
	}
	if tokens[3].text != "kg" {
		t.Errorf("token 3 = %+v, want word \"kg\"", tokens[3])
	}
}
