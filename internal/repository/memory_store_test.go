package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anime-shed/seedling-inspector-go/pkg/models"
)

func newClockedStore() *MemoryStore {
	store := NewMemoryStore()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return store
}

func TestMemoryStore_Records(t *testing.T) {
	ctx := context.Background()
	store := newClockedStore()

	first := &models.GerminationRecord{UserID: "u1", SeedType: "Radish", ExpectedGerminationDays: 3}
	second := &models.GerminationRecord{UserID: "u1", SeedType: "Basil", ExpectedGerminationDays: 8}
	other := &models.GerminationRecord{UserID: "u2", SeedType: "Kale"}

	for _, r := range []*models.GerminationRecord{first, second, other} {
		if err := store.CreateRecord(ctx, r); err != nil {
			t.Fatalf("CreateRecord failed: %v", err)
		}
	}

	if first.ID == "" || first.CurrentStage != models.StagePlanted || first.PlantingDate.IsZero() {
		t.Errorf("Expected defaults to be assigned, got %+v", first)
	}

	if err := store.CreatePhoto(ctx, &models.PhotoRecord{GerminationRecordID: first.ID, PhotoURL: "https://x/2.jpg", DayNumber: 2}); err != nil {
		t.Fatalf("CreatePhoto failed: %v", err)
	}
	if err := store.CreatePhoto(ctx, &models.PhotoRecord{GerminationRecordID: first.ID, PhotoURL: "https://x/1.jpg", DayNumber: 1}); err != nil {
		t.Fatalf("CreatePhoto failed: %v", err)
	}

	records, err := store.ListRecords(ctx, "u1")
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ID != second.ID {
		t.Error("Expected newest record first")
	}
	photos := records[1].Photos
	if len(photos) != 2 || photos[0].DayNumber != 1 || photos[1].DayNumber != 2 {
		t.Errorf("Expected photos ordered by day, got %+v", photos)
	}
}

func TestMemoryStore_UpdateRecordStage(t *testing.T) {
	ctx := context.Background()
	store := newClockedStore()

	record := &models.GerminationRecord{UserID: "u1", SeedType: "Chia"}
	if err := store.CreateRecord(ctx, record); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}

	notes := "first sprouts"
	updated, err := store.UpdateRecordStage(ctx, record.ID, models.StageSprouting, &notes)
	if err != nil {
		t.Fatalf("UpdateRecordStage failed: %v", err)
	}
	if updated.CurrentStage != models.StageSprouting || updated.Notes == nil || *updated.Notes != notes {
		t.Errorf("Unexpected record after update: %+v", updated)
	}
	if !updated.UpdatedAt.After(record.UpdatedAt) {
		t.Error("Expected updated_at to advance")
	}

	updated, err = store.UpdateRecordStage(ctx, record.ID, models.StageGerminated, nil)
	if err != nil {
		t.Fatalf("UpdateRecordStage failed: %v", err)
	}
	if updated.Notes == nil || *updated.Notes != notes {
		t.Error("Expected nil notes to leave notes untouched")
	}

	if _, err := store.UpdateRecordStage(ctx, "missing", models.StageMature, nil); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestMemoryStore_SaveAnalysis(t *testing.T) {
	ctx := context.Background()
	store := newClockedStore()

	photo := &models.PhotoRecord{GerminationRecordID: "r1", PhotoURL: "https://x/1.jpg", DayNumber: 1}
	if err := store.CreatePhoto(ctx, photo); err != nil {
		t.Fatalf("CreatePhoto failed: %v", err)
	}

	analysis := `{"source":"generic","germinatedCount":18,"totalSeeds":20}`
	if err := store.SaveAnalysis(ctx, photo.ID, analysis, "openai:gpt-4o-mini"); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	stored := store.photos[0]
	if stored.AIAnalysis != analysis || stored.AIModelUsed != "openai:gpt-4o-mini" {
		t.Errorf("Unexpected stored photo %+v", stored)
	}
	if string(stored.AnalysisDetails) != analysis {
		t.Error("Expected JSON analysis to be kept as details")
	}

	if err := store.SaveAnalysis(ctx, photo.ID, "Healthy sprouts", "ollama:llava"); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}
	if store.photos[0].AnalysisDetails != nil {
		t.Error("Expected prose analysis to clear details")
	}

	if err := store.SaveAnalysis(ctx, "missing", analysis, "x"); !errors.Is(err, ErrPhotoNotFound) {
		t.Errorf("Expected ErrPhotoNotFound, got %v", err)
	}
}

func TestMemoryStore_Progress(t *testing.T) {
	ctx := context.Background()
	store := newClockedStore()

	for _, day := range []int{3, 1, 2} {
		err := store.RecordProgress(ctx, &models.GerminationProgress{GerminationRecordID: "r1", DayNumber: day})
		if err != nil {
			t.Fatalf("RecordProgress failed: %v", err)
		}
	}
	_ = store.RecordProgress(ctx, &models.GerminationProgress{GerminationRecordID: "r2", DayNumber: 1})

	progress, err := store.ListProgress(ctx, "r1")
	if err != nil {
		t.Fatalf("ListProgress failed: %v", err)
	}
	if len(progress) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(progress))
	}
	for i, p := range progress {
		if p.DayNumber != i+1 {
			t.Errorf("Expected day %d at index %d, got %d", i+1, i, p.DayNumber)
		}
	}
}

func TestAnalysisDetails(t *testing.T) {
	if analysisDetails(`{"a":1}`) == nil {
		t.Error("Expected JSON object to be kept")
	}
	if analysisDetails("germinated: 5") != nil {
		t.Error("Expected prose to be dropped")
	}
}
