package models

// AnalyzeWithModelRequest is the inbound body of the analysis route.
// The colab* names are legacy field names the dashboard still sends.
type AnalyzeWithModelRequest struct {
	ImageURL            string `json:"imageUrl"`
	UseCustomModel      bool   `json:"useCustomModel,omitempty"`
	UseColab            bool   `json:"useColab,omitempty"`
	CustomModelEndpoint string `json:"customModelEndpoint,omitempty"`
	ColabEndpoint       string `json:"colabEndpoint,omitempty"`
	PhotoID             string `json:"photoId,omitempty"`
}

// AnalysisResponse is a successful analysis body.
type AnalysisResponse struct {
	Success bool `json:"success"`
	AnalysisPayload
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AdvisoryRequest asks for a free-form grower assessment of a photo.
type AdvisoryRequest struct {
	ImageURL  string `json:"imageUrl" binding:"required"`
	SeedType  string `json:"seedType" binding:"required"`
	DayNumber int    `json:"dayNumber" binding:"min=0"`
}

// AdvisoryResponse carries the assessment text and catalogue data.
type AdvisoryResponse struct {
	Analysis        string      `json:"analysis"`
	ModelUsed       string      `json:"modelUsed"`
	Recommendations []string    `json:"recommendations"`
	SeedData        interface{} `json:"seedData,omitempty"`
}

// UpdatePhotoAnalysisRequest is the analysis writer contract.
type UpdatePhotoAnalysisRequest struct {
	PhotoID   string `json:"photoId" binding:"required"`
	Analysis  string `json:"analysis" binding:"required"`
	ModelUsed string `json:"modelUsed"`
}

// CreateRecordRequest starts a germination record.
type CreateRecordRequest struct {
	UserID       string `json:"userId" binding:"required"`
	SeedType     string `json:"seedType" binding:"required"`
	ExpectedDays int    `json:"expectedDays" binding:"min=0"`
	Notes        string `json:"notes"`
}

// UpdateRecordRequest moves a record to a new stage.
type UpdateRecordRequest struct {
	RecordID string  `json:"recordId" binding:"required"`
	Stage    string  `json:"stage" binding:"required"`
	Notes    *string `json:"notes"`
}

// RecordProgressRequest uses the database column names, as the dashboard posts them.
type RecordProgressRequest struct {
	GerminationRecordID      string   `json:"germination_record_id" binding:"required"`
	DayNumber                *int     `json:"day_number" binding:"required"`
	ActualGerminationRate    *float64 `json:"actual_germination_rate" binding:"required"`
	PredictedGerminationRate float64  `json:"predicted_germination_rate"`
	GrowthStage              string   `json:"growth_stage"`
	Temperature              float64  `json:"temperature"`
	Humidity                 float64  `json:"humidity"`
	Notes                    string   `json:"notes"`
	PredictionAccuracy       float64  `json:"prediction_accuracy"`
	Status                   string   `json:"status"`
}
