package models

import (
	"time"

	"gorm.io/datatypes"
)

// GrowthStage is the lifecycle stage of a germination record.
type GrowthStage string

const (
	StagePlanted    GrowthStage = "planted"
	StageSprouting  GrowthStage = "sprouting"
	StageGerminated GrowthStage = "germinated"
	StageMature     GrowthStage = "mature"
)

// Valid reports whether s is one of the known stages.
func (s GrowthStage) Valid() bool {
	switch s {
	case StagePlanted, StageSprouting, StageGerminated, StageMature:
		return true
	}
	return false
}

// Successful reports whether the stage counts toward the success rate.
func (s GrowthStage) Successful() bool {
	return s == StageGerminated || s == StageMature
}

// GerminationRecord tracks one sowing of one seed type.
type GerminationRecord struct {
	ID                      string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID                  string        `gorm:"index;not null" json:"user_id"`
	SeedType                string        `gorm:"not null" json:"seed_type"`
	PlantingDate            time.Time     `json:"planting_date"`
	ExpectedGerminationDays int           `json:"expected_germination_days"`
	CurrentStage            GrowthStage   `gorm:"type:varchar(20);default:planted" json:"current_stage"`
	Notes                   *string       `gorm:"type:text" json:"notes"`
	CreatedAt               time.Time     `json:"created_at"`
	UpdatedAt               time.Time     `json:"updated_at"`
	Photos                  []PhotoRecord `gorm:"foreignKey:GerminationRecordID" json:"photo_records,omitempty"`
}

func (GerminationRecord) TableName() string { return "germination_records" }

// PhotoRecord is a daily photo attached to a germination record.
type PhotoRecord struct {
	ID                  string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	GerminationRecordID string         `gorm:"index;type:varchar(36)" json:"germination_record_id"`
	PhotoURL            string         `gorm:"not null" json:"photo_url"`
	DayNumber           int            `json:"day_number"`
	AIAnalysis          string         `gorm:"type:text" json:"ai_analysis,omitempty"`
	AIModelUsed         string         `json:"ai_model_used,omitempty"`
	AnalysisDetails     datatypes.JSON `json:"analysis_details,omitempty"`
	UploadedAt          time.Time      `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (PhotoRecord) TableName() string { return "photo_records" }

// Progress status values.
const (
	ProgressOnTrack = "on_track"
)

// GerminationProgress is a daily measurement for a record.
type GerminationProgress struct {
	ID                       string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	GerminationRecordID      string    `gorm:"index;type:varchar(36)" json:"germination_record_id"`
	DayNumber                int       `json:"day_number"`
	ActualGerminationRate    float64   `json:"actual_germination_rate"`
	PredictedGerminationRate float64   `json:"predicted_germination_rate"`
	GrowthStage              string    `json:"growth_stage"`
	Temperature              float64   `json:"temperature"`
	Humidity                 float64   `json:"humidity"`
	Notes                    string    `gorm:"type:text" json:"notes"`
	PredictionAccuracy       float64   `json:"prediction_accuracy"`
	Status                   string    `json:"status"`
	RecordedAt               time.Time `gorm:"autoCreateTime" json:"recorded_at"`
}

func (GerminationProgress) TableName() string { return "germination_progress" }

// DashboardAnalytics summarises a user's records.
type DashboardAnalytics struct {
	TotalRecords  int                 `json:"totalRecords"`
	ActiveRecords int                 `json:"activeRecords"`
	PhotoCount    int                 `json:"photoCount"`
	SuccessRate   int                 `json:"successRate"`
	SeedTypeStats map[string]int      `json:"seedTypeStats"`
	RecentRecords []GerminationRecord `json:"recentRecords"`
}
