package usecase

import (
	"math"
	"testing"
)

func newTestScorer(t *testing.T) *SimilarityScorer {
	t.Helper()
	scorer, err := NewSimilarityScorer(DefaultScorerConfig())
	if err != nil {
		t.Fatalf("unexpected error building scorer: %v", err)
	}
	return scorer
}

func TestNewSimilarityScorer(t *testing.T) {
	t.Run("accepts default config", func(t *testing.T) {
		if _, err := NewSimilarityScorer(DefaultScorerConfig()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("rejects weights that do not sum to one", func(t *testing.T) {
		cfg := DefaultScorerConfig()
		cfg.Weights.Brand = 0.5
		if _, err := NewSimilarityScorer(cfg); err == nil {
			t.Error("expected error for weights summing to 1.25, got nil")
		}
	})

	t.Run("default weights sum to one", func(t *testing.T) {
		sum := DefaultScorerConfig().Weights.Sum()
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("weight sum = %v, want 1.0", sum)
		}
	})
}

func TestCompareBrands(t *testing.T) {
	scorer := newTestScorer(t)

	t.Run("both missing is neutral", func(t *testing.T) {
		if got := scorer.compareBrands("", ""); got != 50 {
			t.Errorf("compareBrands(\"\", \"\") = %v, want 50", got)
		}
	})

	t.Run("one missing is zero", func(t *testing.T) {
		if got := scorer.compareBrands("IOGO", ""); got != 0 {
			t.Errorf("compareBrands(\"IOGO\", \"\") = %v, want 0", got)
		}
		if got := scorer.compareBrands("", "IOGO"); got != 0 {
			t.Errorf("compareBrands(\"\", \"IOGO\") = %v, want 0", got)
		}
	})

	t.Run("identical after normalization", func(t *testing.T) {
		if got := scorer.compareBrands("Coca-Cola", "COCA COLA"); got != 100 {
			t.Errorf("compareBrands = %v, want 100", got)
		}
	})

	t.Run("synonym pair scores 95", func(t *testing.T) {
		if got := scorer.compareBrands("OLIMEL", "OLYMEL"); got != 95 {
			t.Errorf("compareBrands(\"OLIMEL\", \"OLYMEL\") = %v, want 95", got)
		}
	})

	t.Run("synonyms of the same canonical score 95", func(t *testing.T) {
		if got := scorer.compareBrands("MAPLE", "MAPLELEAF"); got != 95 {
			t.Errorf("compareBrands(\"MAPLE\", \"MAPLELEAF\") = %v, want 95", got)
		}
	})

	t.Run("unrelated brands score below 100", func(t *testing.T) {
		got := scorer.compareBrands("IOGO", "DANONE")
		if got < 0 || got >= 100 {
			t.Errorf("compareBrands(\"IOGO\", \"DANONE\") = %v, want in [0, 100)", got)
		}
	})
}

func TestCompareFormats(t *testing.T) {
	scorer := newTestScorer(t)

	t.Run("same magnitude regardless of spacing", func(t *testing.T) {
		if got := scorer.compareFormats("4X2 KG", "4X2KG", "", ""); got != 100 {
			t.Errorf("compareFormats = %v, want 100", got)
		}
	})

	t.Run("close magnitudes with same unit get the bonus", func(t *testing.T) {
		got := scorer.compareFormats("2 KG", "3 KG", "", "")
		// |2000-3000|/3000 = 33.3% difference, 66.7 similarity, ×1.1 bonus
		if math.Abs(got-73.33) > 0.01 {
			t.Errorf("compareFormats(\"2 KG\", \"3 KG\") = %v, want ~73.33", got)
		}
	})

	t.Run("bonus never pushes past 100", func(t *testing.T) {
		got := scorer.compareFormats("2 KG", "2000 G", "", "")
		if got != 100 {
			t.Errorf("compareFormats(\"2 KG\", \"2000 G\") = %v, want 100", got)
		}
	})

	t.Run("both unparseable and empty is neutral", func(t *testing.T) {
		if got := scorer.compareFormats("", "", "", ""); got != 50 {
			t.Errorf("compareFormats = %v, want 50", got)
		}
	})

	t.Run("unparseable falls back to string similarity", func(t *testing.T) {
		got := scorer.compareFormats("GRAND", "GRAND", "", "")
		if got != 100 {
			t.Errorf("compareFormats(\"GRAND\", \"GRAND\") = %v, want 100", got)
		}
	})

	t.Run("huge difference floors at zero", func(t *testing.T) {
		got := scorer.compareFormats("1 G", "100 KG", "", "")
		if got < 0 {
			t.Errorf("compareFormats = %v, want >= 0", got)
		}
	})
}

func TestComparePackaging(t *testing.T) {
	scorer := newTestScorer(t)

	t.Run("both unknown is neutral", func(t *testing.T) {
		if got := scorer.comparePackaging("", "", "YOGOURT", "FROMAGE"); got != 50 {
			t.Errorf("comparePackaging = %v, want 50", got)
		}
	})

	t.Run("same category scores 100", func(t *testing.T) {
		if got := scorer.comparePackaging("BOX", "BOX 12X100G", "", ""); got != 100 {
			t.Errorf("comparePackaging = %v, want 100", got)
		}
	})

	t.Run("keyword found in product name", func(t *testing.T) {
		if got := scorer.comparePackaging("", "", "MILK BOTTLE 2L", "LAIT BOTTLE"); got != 100 {
			t.Errorf("comparePackaging = %v, want 100", got)
		}
	})
}

func TestTypeSignature(t *testing.T) {
	scorer := newTestScorer(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"drops percentages and stop words", "YOGOURT VANILLE 1.5% ORIG IOGO", "yogourt vanille iogo"},
		{"drops short noise tokens", "JUS DE POMME OASIS", "jus pomme oasis"},
		{"caps at three tokens", "POULET ENTIER FRAIS REFROIDI CANADA", "poulet entier frais"},
		{"empty name", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorer.typeSignature(tt.in); got != tt.want {
				t.Errorf("typeSignature(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCalculateSimilarity(t *testing.T) {
	scorer := newTestScorer(t)

	t.Run("identical products score 100", func(t *testing.T) {
		fields := ProductFields{Name: "YOGOURT VANILLE IOGO", Brand: "IOGO", Format: "12X100G", Packaging: "BOX"}
		score := scorer.CalculateSimilarity(fields, fields)
		if score.Total != 100 {
			t.Errorf("Total = %v, want 100", score.Total)
		}
	})

	t.Run("all sub-scores stay in range", func(t *testing.T) {
		query := ProductFields{Name: "POULET", Brand: "OLYMEL", Format: "2 KG"}
		candidate := ProductFields{Name: "BOEUF HACHE", Brand: "MAPLE LEAF", Format: "454 G", Packaging: "CASE"}
		score := scorer.CalculateSimilarity(query, candidate)

		for name, v := range map[string]float64{
			"Brand":       score.Brand,
			"ProductType": score.ProductType,
			"Format":      score.Format,
			"Packaging":   score.Packaging,
			"Total":       score.Total,
		} {
			if v < 0 || v > 100 {
				t.Errorf("%s = %v, want in [0, 100]", name, v)
			}
		}
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		query := ProductFields{Name: "YOGOURT VANILLE", Brand: "IOGO", Format: "12X100G"}
		candidate := ProductFields{Name: "YOGOURT FRAISE", Brand: "DANONE", Format: "8X100G", Packaging: "BOX"}

		first := scorer.CalculateSimilarity(query, candidate)
		for i := 0; i < 50; i++ {
			if got := scorer.CalculateSimilarity(query, candidate); got != first {
				t.Fatalf("run %d: score %+v, want %+v", i, got, first)
			}
		}
	})

	t.Run("weighted total matches sub-scores", func(t *testing.T) {
		query := ProductFields{Name: "YOGOURT VANILLE", Brand: "IOGO", Format: "12X100G", Packaging: "BOX"}
		candidate := ProductFields{Name: "YOGOURT FRAISE", Brand: "IOGO", Format: "12X100G", Packaging: "CASE"}
		score := scorer.CalculateSimilarity(query, candidate)

		want := score.Brand*0.25 + score.ProductType*0.40 + score.Format*0.25 + score.Packaging*0.10
		if math.Abs(score.Total-want) > 1e-9 {
			t.Errorf("Total = %v, want %v", score.Total, want)
		}
	})
}
