package repository

import (
	"testing"
	"time"

	"github.com/anime-shed/seedling-inspector-go/pkg/models"
)

func TestBuildDashboard(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	record := func(id, seed string, stage models.GrowthStage, day int, photos int) models.GerminationRecord {
		r := models.GerminationRecord{
			ID:           id,
			SeedType:     seed,
			CurrentStage: stage,
			CreatedAt:    base.AddDate(0, 0, day),
		}
		for i := 0; i < photos; i++ {
			r.Photos = append(r.Photos, models.PhotoRecord{DayNumber: i + 1})
		}
		return r
	}

	records := []models.GerminationRecord{
		record("a", "Radish", models.StagePlanted, 0, 1),
		record("b", "Radish", models.StageSprouting, 1, 2),
		record("c", "Basil", models.StageGerminated, 2, 0),
		record("d", "Kale", models.StageMature, 3, 3),
		record("e", "Chia", models.StagePlanted, 4, 0),
		record("f", "Chia", models.StagePlanted, 5, 0),
	}

	analytics := BuildDashboard(records)

	if analytics.TotalRecords != 6 {
		t.Errorf("Expected 6 records, got %d", analytics.TotalRecords)
	}
	if analytics.ActiveRecords != 5 {
		t.Errorf("Expected 5 active records, got %d", analytics.ActiveRecords)
	}
	if analytics.PhotoCount != 6 {
		t.Errorf("Expected 6 photos, got %d", analytics.PhotoCount)
	}
	// 2 of 6 reached germinated or mature.
	if analytics.SuccessRate != 33 {
		t.Errorf("Expected success rate 33, got %d", analytics.SuccessRate)
	}
	if analytics.SeedTypeStats["Radish"] != 2 || analytics.SeedTypeStats["Chia"] != 2 || analytics.SeedTypeStats["Kale"] != 1 {
		t.Errorf("Unexpected seed stats %v", analytics.SeedTypeStats)
	}
	if len(analytics.RecentRecords) != RecentRecordsLimit {
		t.Fatalf("Expected %d recent records, got %d", RecentRecordsLimit, len(analytics.RecentRecords))
	}
	if analytics.RecentRecords[0].ID != "f" || analytics.RecentRecords[4].ID != "b" {
		t.Errorf("Expected newest five records, got first=%s last=%s",
			analytics.RecentRecords[0].ID, analytics.RecentRecords[4].ID)
	}
}

func TestBuildDashboard_Empty(t *testing.T) {
	analytics := BuildDashboard(nil)
	if analytics.TotalRecords != 0 || analytics.SuccessRate != 0 {
		t.Errorf("Expected zeroed analytics, got %+v", analytics)
	}
	if analytics.SeedTypeStats == nil || analytics.RecentRecords == nil {
		t.Error("Expected empty, non-nil collections")
	}
}
