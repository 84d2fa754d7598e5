package usecase

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty string", "", ""},
		{"lowercases", "YOGOURT VANILLE", "yogourt vanille"},
		{"trims whitespace", "  milk  ", "milk"},
		{"collapses inner whitespace", "whole   milk\t2%", "whole milk 2"},
		{"replaces punctuation with space", "coca-cola (classic)", "coca cola classic"},
		{"keeps periods", "1.5% m.g.", "1.5 m.g."},
		{"accented characters survive", "café pré-mélangé", "café pré mélangé"},
		{"only punctuation", "!!/??", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	inputs := []string{"YOGOURT VANILLE 1.5%", "coca-cola", "  a  b  c  ", ""}
	for _, input := range inputs {
		once := NormalizeText(input)
		twice := NormalizeText(once)
		if once != twice {
			t.Errorf("NormalizeText not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}
