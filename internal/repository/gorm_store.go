package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anime-shed/seedling-inspector-go/pkg/models"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormStore keeps records in PostgreSQL.
type GormStore struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// NewGormStore connects to dsn through lib/pq and migrates the service tables.
func NewGormStore(ctx context.Context, dsn string) (*GormStore, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("can't initialise gorm: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&models.GerminationRecord{},
		&models.PhotoRecord{},
		&models.GerminationProgress{},
	); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &GormStore{db: db, sqlDB: sqlDB}, nil
}

func (s *GormStore) Close() error {
	return s.sqlDB.Close()
}

func (s *GormStore) CreateRecord(ctx context.Context, record *models.GerminationRecord) error {
	prepareRecord(record, time.Now())
	if err := s.db.WithContext(ctx).Omit("Photos").Create(record).Error; err != nil {
		return fmt.Errorf("can't create record: %w", err)
	}
	return nil
}

func (s *GormStore) ListRecords(ctx context.Context, userID string) ([]models.GerminationRecord, error) {
	var records []models.GerminationRecord
	err := s.db.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_number ASC")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("can't list records: %w", err)
	}
	return records, nil
}

func (s *GormStore) GetRecord(ctx context.Context, id string) (*models.GerminationRecord, error) {
	var record models.GerminationRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("can't get record: %w", err)
	}
	return &record, nil
}

func (s *GormStore) UpdateRecordStage(ctx context.Context, id string, stage models.GrowthStage, notes *string) (*models.GerminationRecord, error) {
	updates := map[string]interface{}{
		"current_stage": stage,
		"updated_at":    time.Now(),
	}
	if notes != nil {
		updates["notes"] = *notes
	}

	result := s.db.WithContext(ctx).Model(&models.GerminationRecord{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("can't update record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return s.GetRecord(ctx, id)
}

func (s *GormStore) CreatePhoto(ctx context.Context, photo *models.PhotoRecord) error {
	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(photo).Error; err != nil {
		return fmt.Errorf("can't create photo: %w", err)
	}
	return nil
}

func (s *GormStore) SaveAnalysis(ctx context.Context, photoID, analysis, modelUsed string) error {
	result := s.db.WithContext(ctx).Model(&models.PhotoRecord{}).Where("id = ?", photoID).Updates(map[string]interface{}{
		"ai_analysis":      analysis,
		"ai_model_used":    modelUsed,
		"analysis_details": analysisDetails(analysis),
	})
	if result.Error != nil {
		return fmt.Errorf("can't save analysis: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func (s *GormStore) RecordProgress(ctx context.Context, progress *models.GerminationProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(progress).Error; err != nil {
		return fmt.Errorf("can't record progress: %w", err)
	}
	return nil
}

func (s *GormStore) ListProgress(ctx context.Context, recordID string) ([]models.GerminationProgress, error) {
	var progress []models.GerminationProgress
	err := s.db.WithContext(ctx).
		Where("germination_record_id = ?", recordID).
		Order("day_number ASC").
		Find(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("can't list progress: %w", err)
	}
	return progress, nil
}

func prepareRecord(record *models.GerminationRecord, now time.Time) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CurrentStage == "" {
		record.CurrentStage = models.StagePlanted
	}
	if record.PlantingDate.IsZero() {
		record.PlantingDate = now
	}
}

// analysisDetails keeps a queryable copy of analyses that are JSON documents.
func analysisDetails(analysis string) datatypes.JSON {
	if !json.Valid([]byte(analysis)) {
		return nil
	}
	return datatypes.JSON(analysis)
}
