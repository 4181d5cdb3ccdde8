package models

// Source tags which upstream produced an analysis.
type Source string

const (
	SourceCustom  Source = "custom"
	SourceGeneric Source = "generic"
)

// PositiveThreshold is the probability at which the custom model calls a seed germinated.
const PositiveThreshold = 0.5

// AnalysisRequest asks for one germination assessment of an image.
type AnalysisRequest struct {
	ImageURL            string
	UseCustomModel      bool
	CustomModelEndpoint string
}

// WantsCustomModel reports whether the custom path is eligible.
func (r AnalysisRequest) WantsCustomModel() bool {
	return r.UseCustomModel && r.CustomModelEndpoint != ""
}

// CustomModelResult is the single-score answer of the custom model.
// Confidence equals Probability.
type CustomModelResult struct {
	Probability float64
	IsPositive  bool
	Confidence  float64
}

// NewCustomModelResult derives the result fields from a probability score.
func NewCustomModelResult(probability float64) CustomModelResult {
	return CustomModelResult{
		Probability: probability,
		IsPositive:  probability >= PositiveThreshold,
		Confidence:  probability,
	}
}

// GenericModelResult is what the normalizer extracts from vision-LLM text.
// GerminatedCount may exceed TotalSeeds; upstream text is taken at face value.
type GenericModelResult struct {
	GerminatedCount int
	TotalSeeds      int
	GerminationRate float64
	Confidence      float64
	Assessment      string
	RawText         string
}

// GerminationSummary is the count-based view shared by both variants.
type GerminationSummary struct {
	GerminatedCount int
	TotalSeeds      int
	GerminationRate float64
	Confidence      float64
}

// AnalysisResult is the canonical analysis outcome. It is implemented only by
// CustomAnalysis and GenericAnalysis.
type AnalysisResult interface {
	Source() Source
	Summary() GerminationSummary
	isAnalysisResult()
}

// CustomAnalysis is the "custom"-tagged variant.
type CustomAnalysis struct {
	CustomModelResult
	Assessment string
}

func (CustomAnalysis) Source() Source { return SourceCustom }

func (a CustomAnalysis) Summary() GerminationSummary {
	germinated := 0
	if a.IsPositive {
		germinated = 1
	}
	return GerminationSummary{
		GerminatedCount: germinated,
		TotalSeeds:      1,
		GerminationRate: a.Probability * 100,
		Confidence:      a.Confidence,
	}
}

func (CustomAnalysis) isAnalysisResult() {}

// GenericAnalysis is the "generic"-tagged variant.
type GenericAnalysis struct {
	GenericModelResult
}

func (GenericAnalysis) Source() Source { return SourceGeneric }

func (a GenericAnalysis) Summary() GerminationSummary {
	return GerminationSummary{
		GerminatedCount: a.GerminatedCount,
		TotalSeeds:      a.TotalSeeds,
		GerminationRate: a.GerminationRate,
		Confidence:      a.Confidence,
	}
}

func (GenericAnalysis) isAnalysisResult() {}

// AnalysisPayload is the flattened wire form of an AnalysisResult.
type AnalysisPayload struct {
	Source          Source   `json:"source"`
	Probability     *float64 `json:"probability,omitempty"`
	IsPositive      *bool    `json:"isPositive,omitempty"`
	GerminatedCount int      `json:"germinatedCount"`
	TotalSeeds      int      `json:"totalSeeds"`
	GerminationRate float64  `json:"germinationRate"`
	Confidence      float64  `json:"confidence"`
	Assessment      string   `json:"assessment,omitempty"`
	ModelUsed       string   `json:"modelUsed,omitempty"`
}

// NewAnalysisPayload flattens a result for JSON responses and persistence.
func NewAnalysisPayload(result AnalysisResult, modelUsed string) AnalysisPayload {
	summary := result.Summary()
	payload := AnalysisPayload{
		Source:          result.Source(),
		GerminatedCount: summary.GerminatedCount,
		TotalSeeds:      summary.TotalSeeds,
		GerminationRate: summary.GerminationRate,
		Confidence:      summary.Confidence,
		ModelUsed:       modelUsed,
	}

	switch r := result.(type) {
	case CustomAnalysis:
		probability := r.Probability
		positive := r.IsPositive
		payload.Probability = &probability
		payload.IsPositive = &positive
		payload.Assessment = r.Assessment
	case GenericAnalysis:
		payload.Assessment = r.Assessment
	}
	return payload
}
