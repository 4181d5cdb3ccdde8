package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/anime-shed/seedling-inspector-go/internal/errors"
	"github.com/anime-shed/seedling-inspector-go/internal/repository"
	"github.com/anime-shed/seedling-inspector-go/internal/storage"
	"github.com/anime-shed/seedling-inspector-go/pkg/models"
)

// brokenStore fails writes and reads that the dashboard and uploads depend on.
type brokenStore struct {
	*repository.MemoryStore
}

func (brokenStore) CreatePhoto(ctx context.Context, photo *models.PhotoRecord) error {
	return repository.ErrRepositoryUnavailable
}

func (brokenStore) ListRecords(ctx context.Context, userID string) ([]models.GerminationRecord, error) {
	return nil, repository.ErrRepositoryUnavailable
}

type failingPhotoStore struct{}

func (failingPhotoStore) Upload(ctx context.Context, upload storage.PhotoUpload) (string, error) {
	return "", errors.New("container missing")
}

func TestGerminationService_RecordLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewGerminationService(repository.NewMemoryStore(), storage.PlaceholderStore{})

	record, err := svc.CreateRecord(ctx, models.CreateRecordRequest{UserID: "user-1", SeedType: "Radish", ExpectedDays: 3, Notes: "tray A"})
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if record.ID == "" || record.CurrentStage != models.StagePlanted || *record.Notes != "tray A" {
		t.Errorf("Unexpected record %+v", record)
	}

	updated, err := svc.UpdateRecord(ctx, models.UpdateRecordRequest{RecordID: record.ID, Stage: "sprouting"})
	if err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}
	if updated.CurrentStage != models.StageSprouting || *updated.Notes != "tray A" {
		t.Errorf("Unexpected updated record %+v", updated)
	}

	records, err := svc.ListRecords(ctx, "user-1")
	if err != nil || len(records) != 1 {
		t.Fatalf("Expected one record, got %d (%v)", len(records), err)
	}

	empty, err := svc.ListRecords(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("Expected empty non-nil list, got %v (%v)", empty, err)
	}
}

func TestGerminationService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewGerminationService(repository.NewMemoryStore(), storage.PlaceholderStore{})

	tests := []struct {
		name string
		call func() error
	}{
		{"create without seed", func() error {
			_, err := svc.CreateRecord(ctx, models.CreateRecordRequest{UserID: "u"})
			return err
		}},
		{"list without user", func() error {
			_, err := svc.ListRecords(ctx, " ")
			return err
		}},
		{"unknown stage", func() error {
			_, err := svc.UpdateRecord(ctx, models.UpdateRecordRequest{RecordID: "r", Stage: "wilted"})
			return err
		}},
		{"progress without day", func() error {
			rate := 40.0
			_, err := svc.RecordProgress(ctx, models.RecordProgressRequest{GerminationRecordID: "r", ActualGerminationRate: &rate})
			return err
		}},
		{"analysis without text", func() error {
			return svc.SaveAnalysis(ctx, models.UpdatePhotoAnalysisRequest{PhotoID: "p"})
		}},
		{"empty upload", func() error {
			_, err := svc.UploadPhoto(ctx, storage.PhotoUpload{RecordID: "r", DayNumber: 1})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestGerminationService_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewGerminationService(repository.NewMemoryStore(), storage.PlaceholderStore{})

	if _, err := svc.UpdateRecord(ctx, models.UpdateRecordRequest{RecordID: "missing", Stage: "mature"}); apperrors.GetStatusCode(err) != 404 {
		t.Errorf("Expected 404 for unknown record, got %v", err)
	}
	if _, err := svc.GetRecordDetails(ctx, "missing"); apperrors.GetStatusCode(err) != 404 {
		t.Errorf("Expected 404 for unknown record details, got %v", err)
	}
	err := svc.SaveAnalysis(ctx, models.UpdatePhotoAnalysisRequest{PhotoID: "missing", Analysis: "{}"})
	if apperrors.GetStatusCode(err) != 404 {
		t.Errorf("Expected 404 for unknown photo, got %v", err)
	}
}

func TestGerminationService_ProgressDefaults(t *testing.T) {
	ctx := context.Background()
	svc := NewGerminationService(repository.NewMemoryStore(), storage.PlaceholderStore{})

	record, _ := svc.CreateRecord(ctx, models.CreateRecordRequest{UserID: "u", SeedType: "Basil"})
	for _, day := range []int{3, 1} {
		day := day
		rate := float64(day * 10)
		if _, err := svc.RecordProgress(ctx, models.RecordProgressRequest{
			GerminationRecordID:   record.ID,
			DayNumber:             &day,
			ActualGerminationRate: &rate,
		}); err != nil {
			t.Fatalf("RecordProgress failed: %v", err)
		}
	}

	details, err := svc.GetRecordDetails(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetRecordDetails failed: %v", err)
	}
	if len(details.Progress) != 2 || details.Progress[0].DayNumber != 1 {
		t.Fatalf("Expected progress sorted by day, got %+v", details.Progress)
	}
	p := details.Progress[0]
	if p.GrowthStage != "planted" || p.Temperature != 22 || p.Humidity != 70 || p.Status != "on_track" {
		t.Errorf("Expected defaults applied, got %+v", p)
	}
}

func TestGerminationService_UploadAndAnalysis(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewGerminationService(store, storage.PlaceholderStore{})

	record, _ := svc.CreateRecord(ctx, models.CreateRecordRequest{UserID: "u", SeedType: "Kale"})
	result, err := svc.UploadPhoto(ctx, storage.PhotoUpload{RecordID: record.ID, DayNumber: 2, Filename: "tray.jpg", Data: []byte{0xff, 0xd8}})
	if err != nil {
		t.Fatalf("UploadPhoto failed: %v", err)
	}
	if !strings.HasPrefix(result.BlobURL, "/placeholder.svg") || result.Photo.PhotoURL != result.BlobURL {
		t.Errorf("Unexpected upload result %+v", result)
	}
	if result.Photo.ID == "" || strings.HasPrefix(result.Photo.ID, "temp-photo-") {
		t.Errorf("Expected stored photo id, got %q", result.Photo.ID)
	}

	if err := svc.SaveAnalysis(ctx, models.UpdatePhotoAnalysisRequest{
		PhotoID:   result.Photo.ID,
		Analysis:  `{"source":"generic","germinatedCount":3}`,
		ModelUsed: "openai:gpt-4o-mini",
	}); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	records, _ := svc.ListRecords(ctx, "u")
	photo := records[0].Photos[0]
	if photo.AIModelUsed != "openai:gpt-4o-mini" || len(photo.AnalysisDetails) == 0 {
		t.Errorf("Expected analysis persisted, got %+v", photo)
	}
}

func TestGerminationService_UploadFallbacks(t *testing.T) {
	ctx := context.Background()
	upload := storage.PhotoUpload{RecordID: "demo-record", DayNumber: 1, Filename: "a.png", Data: []byte("x")}

	svc := NewGerminationService(brokenStore{repository.NewMemoryStore()}, storage.PlaceholderStore{})
	result, err := svc.UploadPhoto(ctx, upload)
	if err != nil {
		t.Fatalf("Expected temporary photo on store failure, got %v", err)
	}
	if !strings.HasPrefix(result.Photo.ID, "temp-photo-") || result.Photo.UploadedAt.IsZero() {
		t.Errorf("Unexpected temporary photo %+v", result.Photo)
	}

	failing := NewGerminationService(repository.NewMemoryStore(), failingPhotoStore{})
	if _, err := failing.UploadPhoto(ctx, upload); apperrors.GetStatusCode(err) != 500 {
		t.Errorf("Expected 500 when blob upload fails, got %v", err)
	}
}

func TestGerminationService_Dashboard(t *testing.T) {
	ctx := context.Background()

	broken := NewGerminationService(brokenStore{repository.NewMemoryStore()}, storage.PlaceholderStore{})
	analytics, err := broken.Dashboard(ctx, "u")
	if err == nil {
		t.Error("Expected load error to be reported")
	}
	if analytics.TotalRecords != 0 || analytics.SeedTypeStats == nil {
		t.Errorf("Expected zeroed analytics, got %+v", analytics)
	}

	svc := NewGerminationService(repository.NewMemoryStore(), storage.PlaceholderStore{})
	first, _ := svc.CreateRecord(ctx, models.CreateRecordRequest{UserID: "u", SeedType: "Radish"})
	svc.CreateRecord(ctx, models.CreateRecordRequest{UserID: "u", SeedType: "Radish"})
	svc.UpdateRecord(ctx, models.UpdateRecordRequest{RecordID: first.ID, Stage: "germinated"})

	analytics, err = svc.Dashboard(ctx, "u")
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if analytics.TotalRecords != 2 || analytics.SuccessRate != 50 || analytics.SeedTypeStats["Radish"] != 2 {
		t.Errorf("Unexpected analytics %+v", analytics)
	}
}
