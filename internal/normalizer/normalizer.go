// Package normalizer turns free-form vision-LLM answers into count-based
// germination results. Every function here is pure.
package normalizer

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/anime-shed/seedling-inspector-go/pkg/models"
)

const (
	// JSONDefaultConfidence is assigned when a JSON answer carries no confidence.
	JSONDefaultConfidence = 0.85
	// KeyValueDefaultConfidence is assigned when a "key: value" answer carries no confidence.
	KeyValueDefaultConfidence = 0.75
	// FallbackConfidence marks results scraped from bare digit runs.
	FallbackConfidence = 0.75
)

// Strategy names the parse that produced a result.
type Strategy string

const (
	StrategyJSON     Strategy = "json"
	StrategyKeyValue Strategy = "key_value"
	StrategyDigits   Strategy = "digit_runs"
)

var (
	germinatedKeys = keySet("germinated_seeds", "germinated", "germinated_count")
	totalKeys      = keySet("total_seeds", "total", "total_count")
	rateKeys       = keySet("germination_rate", "rate")
	confidenceKeys = keySet("confidence", "confidence_score")
	stageKeys      = keySet("growth_stage", "stage")
	assessmentKeys = keySet("assessment")

	germinatedPattern = regexp.MustCompile(`(?i)\bgerminated(?:[_ ]seeds)?\s*[:=]\s*(\d+(?:\.\d+)?)`)
	totalPattern      = regexp.MustCompile(`(?i)\btotal(?:[_ ]seeds)?\s*[:=]\s*(\d+(?:\.\d+)?)`)
	ratePattern       = regexp.MustCompile(`(?i)\b(?:germination[_ ])?rate\s*[:=]\s*(\d+(?:\.\d+)?)`)
	confidencePattern = regexp.MustCompile(`(?i)\bconfidence(?:[_ ]score)?\s*[:=]\s*(\d*\.?\d+)`)

	digitRun = regexp.MustCompile(`\d+`)
	fence    = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// Normalize converts raw upstream text into a GenericModelResult.
// It never fails: unparsable text degrades to the digit-run fallback.
func Normalize(raw string) models.GenericModelResult {
	result, _ := NormalizeWithStrategy(raw)
	return result
}

// NormalizeWithStrategy is Normalize plus the name of the strategy that matched.
func NormalizeWithStrategy(raw string) (models.GenericModelResult, Strategy) {
	if result, ok := ParseJSON(raw); ok {
		return result, StrategyJSON
	}
	if result, ok := ParseKeyValues(raw); ok {
		return result, StrategyKeyValue
	}
	return ParseDigitRuns(raw), StrategyDigits
}

// ParseJSON reads a JSON object embedded in raw. It succeeds only when at
// least one recognized key is present.
func ParseJSON(raw string) (models.GenericModelResult, bool) {
	candidate := extractJSONObject(raw)
	if candidate == "" {
		return models.GenericModelResult{}, false
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return models.GenericModelResult{}, false
	}

	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[canonicalKey(k)] = v
	}

	germinated, hasGerminated := lookupNumber(values, germinatedKeys)
	total, hasTotal := lookupNumber(values, totalKeys)
	rate, hasRate := lookupNumber(values, rateKeys)
	confidence, hasConfidence := lookupNumber(values, confidenceKeys)
	stage, hasStage := lookupString(values, stageKeys)
	assessment, hasAssessment := lookupString(values, assessmentKeys)

	if !hasGerminated && !hasTotal && !hasRate && !hasConfidence && !hasStage {
		return models.GenericModelResult{}, false
	}

	result := models.GenericModelResult{
		GerminatedCount: toCount(germinated),
		TotalSeeds:      toCount(total),
		GerminationRate: rate,
		Confidence:      JSONDefaultConfidence,
		Assessment:      raw,
		RawText:         raw,
	}
	if hasConfidence {
		result.Confidence = NormalizeConfidence(confidence)
	}
	switch {
	case hasStage:
		result.Assessment = stage
	case hasAssessment:
		result.Assessment = assessment
	}
	return result, true
}

// ParseKeyValues reads "germinated: N, total: N, rate: N%, confidence: 0.N"
// style answers. Each key is optional; at least one must match.
func ParseKeyValues(raw string) (models.GenericModelResult, bool) {
	germinated, hasGerminated := firstNumber(germinatedPattern, raw)
	total, hasTotal := firstNumber(totalPattern, raw)
	rate, hasRate := firstNumber(ratePattern, raw)
	confidence, hasConfidence := firstNumber(confidencePattern, raw)

	if !hasGerminated && !hasTotal && !hasRate && !hasConfidence {
		return models.GenericModelResult{}, false
	}

	result := models.GenericModelResult{
		GerminatedCount: toCount(germinated),
		TotalSeeds:      toCount(total),
		GerminationRate: rate,
		Confidence:      KeyValueDefaultConfidence,
		Assessment:      raw,
		RawText:         raw,
	}
	if hasConfidence {
		result.Confidence = NormalizeConfidence(confidence)
	}
	return result, true
}

// ParseDigitRuns assigns the first three digit runs in raw to germinated
// count, total seeds and germination rate. Missing runs stay 0.
func ParseDigitRuns(raw string) models.GenericModelResult {
	var numbers [3]float64
	for i, run := range digitRun.FindAllString(raw, 3) {
		n, err := strconv.ParseFloat(run, 64)
		if err != nil {
			continue
		}
		numbers[i] = n
	}

	return models.GenericModelResult{
		GerminatedCount: toCount(numbers[0]),
		TotalSeeds:      toCount(numbers[1]),
		GerminationRate: numbers[2],
		Confidence:      FallbackConfidence,
		Assessment:      raw,
		RawText:         raw,
	}
}

// NormalizeConfidence maps percentages (85) to fractions (0.85) and clamps to [0,1].
func NormalizeConfidence(v float64) float64 {
	if v > 1 {
		v = v / 100
	}
	return math.Max(0, math.Min(1, v))
}

func extractJSONObject(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fence.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func keySet(keys ...string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = canonicalKey(k)
	}
	return out
}

// canonicalKey folds snake_case and camelCase spellings together.
func canonicalKey(k string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(k))
}

func lookupNumber(values map[string]interface{}, keys []string) (float64, bool) {
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		if n, ok := toNumber(v); ok {
			return n, true
		}
	}
	return 0, false
}

func lookupString(values map[string]interface{}, keys []string) (string, bool) {
	for _, k := range keys {
		if s, ok := values[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "%"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func firstNumber(pattern *regexp.Regexp, raw string) (float64, bool) {
	m := pattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// maxCount bounds seed counts read from model text.
const maxCount = math.MaxInt32

func toCount(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= maxCount {
		return maxCount
	}
	return int(math.Round(v))
}
