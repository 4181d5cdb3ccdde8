package repository

import (
	"context"

	"github.com/anime-shed/seedling-inspector-go/pkg/models"
)

// RecordRepository defines germination record operations
type RecordRepository interface {
	// CreateRecord stores a new record, assigning ID and timestamps
	CreateRecord(ctx context.Context, record *models.GerminationRecord) error

	// ListRecords returns a user's records, newest first, with their photos
	ListRecords(ctx context.Context, userID string) ([]models.GerminationRecord, error)

	// GetRecord retrieves a single record without photos
	GetRecord(ctx context.Context, id string) (*models.GerminationRecord, error)

	// UpdateRecordStage moves a record to stage; nil notes leaves notes untouched
	UpdateRecordStage(ctx context.Context, id string, stage models.GrowthStage, notes *string) (*models.GerminationRecord, error)
}

// PhotoRepository defines photo record operations
type PhotoRepository interface {
	// CreatePhoto stores a photo reference for a record
	CreatePhoto(ctx context.Context, photo *models.PhotoRecord) error

	// SaveAnalysis attaches analysis text to a photo. Nothing reads it back
	// during analysis.
	SaveAnalysis(ctx context.Context, photoID, analysis, modelUsed string) error
}

// ProgressRepository defines daily progress operations
type ProgressRepository interface {
	// RecordProgress stores one daily measurement
	RecordProgress(ctx context.Context, progress *models.GerminationProgress) error

	// ListProgress returns a record's measurements ordered by day
	ListProgress(ctx context.Context, recordID string) ([]models.GerminationProgress, error)
}

// Store bundles every repository the service needs.
type Store interface {
	RecordRepository
	PhotoRepository
	ProgressRepository
	Close() error
}
