package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/anime-shed/seedling-inspector-go/internal/errors"
	"github.com/anime-shed/seedling-inspector-go/internal/logger"
	"github.com/anime-shed/seedling-inspector-go/internal/repository"
	"github.com/anime-shed/seedling-inspector-go/internal/storage"
	"github.com/anime-shed/seedling-inspector-go/pkg/models"
)

// Defaults applied to progress entries that omit them.
const (
	DefaultProgressTemperature = 22.0
	DefaultProgressHumidity    = 70.0
)

// RecordDetails is a record with its daily progress.
type RecordDetails struct {
	Record   *models.GerminationRecord    `json:"record"`
	Progress []models.GerminationProgress `json:"progress"`
}

// UploadResult is the stored photo and where its bytes live.
type UploadResult struct {
	BlobURL string             `json:"blobUrl"`
	Photo   models.PhotoRecord `json:"photo"`
}

// GerminationService defines record, photo and progress operations
type GerminationService interface {
	CreateRecord(ctx context.Context, req models.CreateRecordRequest) (*models.GerminationRecord, error)
	ListRecords(ctx context.Context, userID string) ([]models.GerminationRecord, error)
	UpdateRecord(ctx context.Context, req models.UpdateRecordRequest) (*models.GerminationRecord, error)
	GetRecordDetails(ctx context.Context, id string) (*RecordDetails, error)
	RecordProgress(ctx context.Context, req models.RecordProgressRequest) (*models.GerminationProgress, error)
	UploadPhoto(ctx context.Context, upload storage.PhotoUpload) (*UploadResult, error)

	// SaveAnalysis writes analysis text against a photo.
	SaveAnalysis(ctx context.Context, req models.UpdatePhotoAnalysisRequest) error

	// Dashboard always returns usable analytics; on load errors they are
	// zeroed and the error is returned alongside.
	Dashboard(ctx context.Context, userID string) (models.DashboardAnalytics, error)
}

type germinationService struct {
	store  repository.Store
	photos storage.PhotoStore
	now    func() time.Time
}

// NewGerminationService creates a new germination service
func NewGerminationService(store repository.Store, photos storage.PhotoStore) GerminationService {
	return &germinationService{
		store:  store,
		photos: photos,
		now:    time.Now,
	}
}

func (s *germinationService) CreateRecord(ctx context.Context, req models.CreateRecordRequest) (*models.GerminationRecord, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.SeedType) == "" {
		return nil, apperrors.NewValidationError("userId and seedType are required", nil)
	}

	record := &models.GerminationRecord{
		UserID:                  req.UserID,
		SeedType:                req.SeedType,
		ExpectedGerminationDays: req.ExpectedDays,
		CurrentStage:            models.StagePlanted,
	}
	if req.Notes != "" {
		notes := req.Notes
		record.Notes = &notes
	}

	if err := s.store.CreateRecord(ctx, record); err != nil {
		return nil, storeError("create germination record", err)
	}
	return record, nil
}

func (s *germinationService) ListRecords(ctx context.Context, userID string) ([]models.GerminationRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}
	records, err := s.store.ListRecords(ctx, userID)
	if err != nil {
		return nil, storeError("list germination records", err)
	}
	if records == nil {
		records = []models.GerminationRecord{}
	}
	return records, nil
}

func (s *germinationService) UpdateRecord(ctx context.Context, req models.UpdateRecordRequest) (*models.GerminationRecord, error) {
	stage := models.GrowthStage(req.Stage)
	if !stage.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown growth stage %q", req.Stage), nil)
	}
	record, err := s.store.UpdateRecordStage(ctx, req.RecordID, stage, req.Notes)
	if err != nil {
		return nil, storeError("update germination record", err)
	}
	return record, nil
}

func (s *germinationService) GetRecordDetails(ctx context.Context, id string) (*RecordDetails, error) {
	record, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return nil, storeError("load germination record", err)
	}
	progress, err := s.store.ListProgress(ctx, id)
	if err != nil {
		return nil, storeError("load germination progress", err)
	}
	if progress == nil {
		progress = []models.GerminationProgress{}
	}
	return &RecordDetails{Record: record, Progress: progress}, nil
}

func (s *germinationService) RecordProgress(ctx context.Context, req models.RecordProgressRequest) (*models.GerminationProgress, error) {
	if req.DayNumber == nil || req.ActualGerminationRate == nil {
		return nil, apperrors.NewValidationError("day_number and actual_germination_rate are required", nil)
	}

	progress := &models.GerminationProgress{
		GerminationRecordID:      req.GerminationRecordID,
		DayNumber:                *req.DayNumber,
		ActualGerminationRate:    *req.ActualGerminationRate,
		PredictedGerminationRate: req.PredictedGerminationRate,
		GrowthStage:              req.GrowthStage,
		Temperature:              req.Temperature,
		Humidity:                 req.Humidity,
		Notes:                    req.Notes,
		PredictionAccuracy:       req.PredictionAccuracy,
		Status:                   req.Status,
	}
	if progress.GrowthStage == "" {
		progress.GrowthStage = string(models.StagePlanted)
	}
	if progress.Temperature == 0 {
		progress.Temperature = DefaultProgressTemperature
	}
	if progress.Humidity == 0 {
		progress.Humidity = DefaultProgressHumidity
	}
	if progress.Status == "" {
		progress.Status = models.ProgressOnTrack
	}

	if err := s.store.RecordProgress(ctx, progress); err != nil {
		return nil, storeError("record germination progress", err)
	}
	return progress, nil
}

// UploadPhoto stores the image, then its photo record. A failed record write
// still returns the stored URL with a temporary photo.
func (s *germinationService) UploadPhoto(ctx context.Context, upload storage.PhotoUpload) (*UploadResult, error) {
	if len(upload.Data) == 0 {
		return nil, apperrors.NewValidationError("No file provided", nil)
	}

	blobURL, err := s.photos.Upload(ctx, upload)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to upload photo", err)
	}

	photo := models.PhotoRecord{
		GerminationRecordID: upload.RecordID,
		PhotoURL:            blobURL,
		DayNumber:           upload.DayNumber,
	}
	if err := s.store.CreatePhoto(ctx, &photo); err != nil {
		now := s.now()
		logger.WithError(err).
			WithField("germination_record_id", upload.RecordID).
			Error("Failed to save photo record, returning temporary photo")
		photo.ID = fmt.Sprintf("temp-photo-%d", now.UnixMilli())
		photo.UploadedAt = now
	}

	return &UploadResult{BlobURL: blobURL, Photo: photo}, nil
}

func (s *germinationService) SaveAnalysis(ctx context.Context, req models.UpdatePhotoAnalysisRequest) error {
	if strings.TrimSpace(req.PhotoID) == "" || req.Analysis == "" {
		return apperrors.NewValidationError("photoId and analysis are required", nil)
	}
	if err := s.store.SaveAnalysis(ctx, req.PhotoID, req.Analysis, req.ModelUsed); err != nil {
		return storeError("save photo analysis", err)
	}
	return nil
}

func (s *germinationService) Dashboard(ctx context.Context, userID string) (models.DashboardAnalytics, error) {
	if strings.TrimSpace(userID) == "" {
		return repository.EmptyDashboard(), apperrors.NewValidationError("User ID required", nil)
	}
	records, err := s.store.ListRecords(ctx, userID)
	if err != nil {
		logger.WithError(err).WithField("user_id", userID).Error("Failed to load dashboard analytics")
		return repository.EmptyDashboard(), storeError("fetch analytics", err)
	}
	return repository.BuildDashboard(records), nil
}

func storeError(action string, err error) error {
	switch {
	case errors.Is(err, repository.ErrRecordNotFound):
		return apperrors.NewNotFoundError("Germination record not found", err)
	case errors.Is(err, repository.ErrPhotoNotFound):
		return apperrors.NewNotFoundError("Photo not found", err)
	default:
		return apperrors.NewInternalError("Failed to "+action, err)
	}
}
