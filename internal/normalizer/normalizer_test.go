package normalizer

import (
	"math"
	"testing"

	"github.com/anime-shed/seedling-inspector-go/pkg/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		expected       models.GenericModelResult
		expectStrategy Strategy
		checkAssess    bool
	}{
		{
			name: "json growth stage answer",
			raw:  `{"germinated_seeds": 18, "total_seeds": 20, "germination_rate": 90, "growth_stage": "sprouting"}`,
			expected: models.GenericModelResult{
				GerminatedCount: 18, TotalSeeds: 20, GerminationRate: 90, Confidence: 0.85, Assessment: "sprouting",
			},
			expectStrategy: StrategyJSON,
			checkAssess:    true,
		},
		{
			name: "key value answer",
			raw:  "germinated: 5, total: 10, rate: 50%, confidence: 0.6",
			expected: models.GenericModelResult{
				GerminatedCount: 5, TotalSeeds: 10, GerminationRate: 50, Confidence: 0.6,
			},
			expectStrategy: StrategyKeyValue,
		},
		{
			name: "percentage confidence",
			raw:  "confidence: 85",
			expected: models.GenericModelResult{
				Confidence: 0.85,
			},
			expectStrategy: StrategyKeyValue,
		},
		{
			name: "prose falls back to digit runs",
			raw:  "Looks healthy, about 12 out of 15 germinated today",
			expected: models.GenericModelResult{
				GerminatedCount: 12, TotalSeeds: 15, GerminationRate: 0, Confidence: 0.75,
			},
			expectStrategy: StrategyDigits,
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"germinated\": 7, \"total\": 9, \"rate\": \"77.8%\", \"confidence\": 0.9}\n```",
			expected: models.GenericModelResult{
				GerminatedCount: 7, TotalSeeds: 9, GerminationRate: 77.8, Confidence: 0.9,
			},
			expectStrategy: StrategyJSON,
		},
		{
			name: "json embedded in prose",
			raw:  `Here you go: {"germinatedCount": 3, "totalSeeds": 4} and nothing else.`,
			expected: models.GenericModelResult{
				GerminatedCount: 3, TotalSeeds: 4, Confidence: 0.85,
			},
			expectStrategy: StrategyJSON,
		},
		{
			name: "key value without confidence",
			raw:  "Germinated seeds: 8\nTotal seeds: 10\nGermination rate: 80%",
			expected: models.GenericModelResult{
				GerminatedCount: 8, TotalSeeds: 10, GerminationRate: 80, Confidence: 0.75,
			},
			expectStrategy: StrategyKeyValue,
		},
		{
			name: "germinated exceeding total is kept",
			raw:  `{"germinated_seeds": 25, "total_seeds": 20}`,
			expected: models.GenericModelResult{
				GerminatedCount: 25, TotalSeeds: 20, Confidence: 0.85,
			},
			expectStrategy: StrategyJSON,
		},
		{
			name: "huge json count is capped",
			raw:  `{"germinated_seeds": 1e30, "total_seeds": 20}`,
			expected: models.GenericModelResult{
				GerminatedCount: math.MaxInt32, TotalSeeds: 20, Confidence: 0.85,
			},
			expectStrategy: StrategyJSON,
		},
		{
			name: "twenty digit run is capped",
			raw:  "about 99999999999999999999 seeds, 3 germinated",
			expected: models.GenericModelResult{
				GerminatedCount: math.MaxInt32, TotalSeeds: 3, Confidence: 0.75,
			},
			expectStrategy: StrategyDigits,
		},
		{
			name: "no digits at all",
			raw:  "I cannot see any seeds in this picture.",
			expected: models.GenericModelResult{
				Confidence: 0.75,
			},
			expectStrategy: StrategyDigits,
		},
		{
			name: "json without recognized keys falls through",
			raw:  `{"color": "green", "count": 4} 2 of 3`,
			expected: models.GenericModelResult{
				GerminatedCount: 4, TotalSeeds: 2, GerminationRate: 3, Confidence: 0.75,
			},
			expectStrategy: StrategyDigits,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, strategy := NormalizeWithStrategy(tt.raw)

			if strategy != tt.expectStrategy {
				t.Errorf("Expected strategy %s, got %s", tt.expectStrategy, strategy)
			}
			if result.GerminatedCount != tt.expected.GerminatedCount {
				t.Errorf("Expected germinated %d, got %d", tt.expected.GerminatedCount, result.GerminatedCount)
			}
			if result.TotalSeeds != tt.expected.TotalSeeds {
				t.Errorf("Expected total %d, got %d", tt.expected.TotalSeeds, result.TotalSeeds)
			}
			if result.GerminationRate != tt.expected.GerminationRate {
				t.Errorf("Expected rate %v, got %v", tt.expected.GerminationRate, result.GerminationRate)
			}
			if result.Confidence != tt.expected.Confidence {
				t.Errorf("Expected confidence %v, got %v", tt.expected.Confidence, result.Confidence)
			}
			if tt.checkAssess && result.Assessment != tt.expected.Assessment {
				t.Errorf("Expected assessment %q, got %q", tt.expected.Assessment, result.Assessment)
			}
			if result.RawText != tt.raw {
				t.Errorf("Expected raw text to be preserved")
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		`{"germinated_seeds": 18, "total_seeds": 20, "germination_rate": 90, "growth_stage": "sprouting"}`,
		"germinated: 5, total: 10, rate: 50%, confidence: 0.6",
		"Looks healthy, about 12 out of 15 germinated today",
		"",
	}

	for _, raw := range inputs {
		first := Normalize(raw)
		second := Normalize(raw)
		if first != second {
			t.Errorf("Normalize(%q) not deterministic: %+v vs %+v", raw, first, second)
		}
	}
}

func TestStructuredParseTakesPrecedenceOverDigits(t *testing.T) {
	raw := `{"germinated_seeds": 3, "total_seeds": 4, "germination_rate": 75, "growth_stage": "day 12 of 30"}`

	result := Normalize(raw)
	if result.GerminatedCount != 3 || result.TotalSeeds != 4 || result.GerminationRate != 75 {
		t.Errorf("Expected structured values 3/4/75, got %d/%d/%v",
			result.GerminatedCount, result.TotalSeeds, result.GerminationRate)
	}
	if result.Assessment != "day 12 of 30" {
		t.Errorf("Expected growth stage as assessment, got %q", result.Assessment)
	}
}

func TestFallbackAssessmentIsRawText(t *testing.T) {
	raw := "about 12 out of 15"
	if got := Normalize(raw).Assessment; got != raw {
		t.Errorf("Expected assessment %q, got %q", raw, got)
	}
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.6, 0.6},
		{1, 1},
		{85, 0.85},
		{100, 1},
		{250, 1},
		{-0.2, 0},
	}

	for _, tt := range tests {
		if got := NormalizeConfidence(tt.in); got != tt.want {
			t.Errorf("NormalizeConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
