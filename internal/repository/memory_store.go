package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anime-shed/seedling-inspector-go/pkg/models"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. It backs demo mode when no
// database is configured, and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []*models.GerminationRecord
	photos   []*models.PhotoRecord
	progress []*models.GerminationProgress
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateRecord(ctx context.Context, record *models.GerminationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	prepareRecord(record, now)
	record.CreatedAt = now
	record.UpdatedAt = now
	record.Photos = nil

	stored := *record
	s.records = append(s.records, &stored)
	return nil
}

func (s *MemoryStore) ListRecords(ctx context.Context, userID string) ([]models.GerminationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.GerminationRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		record := s.records[i]
		if record.UserID != userID {
			continue
		}
		entry := *record
		entry.Photos = s.photosFor(record.ID)
		result = append(result, entry)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) GetRecord(ctx context.Context, id string) (*models.GerminationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record := s.findRecord(id)
	if record == nil {
		return nil, ErrRecordNotFound
	}
	entry := *record
	return &entry, nil
}

func (s *MemoryStore) UpdateRecordStage(ctx context.Context, id string, stage models.GrowthStage, notes *string) (*models.GerminationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.findRecord(id)
	if record == nil {
		return nil, ErrRecordNotFound
	}
	record.CurrentStage = stage
	if notes != nil {
		n := *notes
		record.Notes = &n
	}
	record.UpdatedAt = s.now()

	entry := *record
	return &entry, nil
}

func (s *MemoryStore) CreatePhoto(ctx context.Context, photo *models.PhotoRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	if photo.UploadedAt.IsZero() {
		photo.UploadedAt = s.now()
	}

	stored := *photo
	s.photos = append(s.photos, &stored)
	return nil
}

func (s *MemoryStore) SaveAnalysis(ctx context.Context, photoID, analysis, modelUsed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, photo := range s.photos {
		if photo.ID == photoID {
			photo.AIAnalysis = analysis
			photo.AIModelUsed = modelUsed
			photo.AnalysisDetails = analysisDetails(analysis)
			return nil
		}
	}
	return ErrPhotoNotFound
}

func (s *MemoryStore) RecordProgress(ctx context.Context, progress *models.GerminationProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	if progress.RecordedAt.IsZero() {
		progress.RecordedAt = s.now()
	}

	stored := *progress
	s.progress = append(s.progress, &stored)
	return nil
}

func (s *MemoryStore) ListProgress(ctx context.Context, recordID string) ([]models.GerminationProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.GerminationProgress
	for _, p := range s.progress {
		if p.GerminationRecordID == recordID {
			result = append(result, *p)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DayNumber < result[j].DayNumber
	})
	return result, nil
}

func (s *MemoryStore) findRecord(id string) *models.GerminationRecord {
	for _, record := range s.records {
		if record.ID == id {
			return record
		}
	}
	return nil
}

func (s *MemoryStore) photosFor(recordID string) []models.PhotoRecord {
	var photos []models.PhotoRecord
	for _, photo := range s.photos {
		if photo.GerminationRecordID == recordID {
			photos = append(photos, *photo)
		}
	}
	sort.SliceStable(photos, func(i, j int) bool {
		return photos[i].DayNumber < photos[j].DayNumber
	})
	return photos
}
