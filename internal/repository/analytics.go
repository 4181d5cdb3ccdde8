package repository

import (
	"math"
	"sort"

	"github.com/anime-shed/seedling-inspector-go/pkg/models"
)

// RecentRecordsLimit is how many records the dashboard lists.
const RecentRecordsLimit = 5

// EmptyDashboard is what the dashboard shows when nothing can be loaded.
func EmptyDashboard() models.DashboardAnalytics {
	return models.DashboardAnalytics{
		SeedTypeStats: map[string]int{},
		RecentRecords: []models.GerminationRecord{},
	}
}

// BuildDashboard aggregates a user's records. Records reaching the
// germinated or mature stage count as successes.
func BuildDashboard(records []models.GerminationRecord) models.DashboardAnalytics {
	analytics := EmptyDashboard()
	analytics.TotalRecords = len(records)

	successes := 0
	for _, record := range records {
		if record.CurrentStage != models.StageMature {
			analytics.ActiveRecords++
		}
		if record.CurrentStage.Successful() {
			successes++
		}
		analytics.PhotoCount += len(record.Photos)
		analytics.SeedTypeStats[record.SeedType]++
	}

	if analytics.TotalRecords > 0 {
		analytics.SuccessRate = int(math.Round(float64(successes) / float64(analytics.TotalRecords) * 100))
	}

	recent := make([]models.GerminationRecord, len(records))
	copy(recent, records)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > RecentRecordsLimit {
		recent = recent[:RecentRecordsLimit]
	}
	analytics.RecentRecords = recent

	return analytics
}
