package database

import (
	"context"
	"errors"
	"fmt"

	"catalogsync/internal/models"

	"gorm.io/gorm"
)

var ErrRunNotFound = errors.New("run not found")

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// RunFilter narrows and pages ListRuns.
type RunFilter struct {
	Kind   string
	Limit  int
	Offset int
}

// Store keeps job runs and their row results.
type Store struct {
	db *gorm.DB
}

func NewStore(db *Database) *Store {
	return &Store{db: db.DB}
}

func (s *Store) StartRun(ctx context.Context, run *models.JobRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (s *Store) RecordRow(ctx context.Context, row *models.RowResult) error {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to create row result: %w", err)
	}
	return nil
}

// FinishRun stores the final status and counters. The run is inserted if
// StartRun never reached the database.
func (s *Store) FinishRun(ctx context.Context, run *models.JobRun) error {
	if err := s.db.WithContext(ctx).Omit("Rows").Save(run).Error; err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// ListRuns returns runs newest first along with the total matching count.
func (s *Store) ListRuns(ctx context.Context, filter RunFilter) ([]models.JobRun, int64, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	byKind := func(db *gorm.DB) *gorm.DB {
		if filter.Kind != "" {
			return db.Where("kind = ?", filter.Kind)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.JobRun{}).Scopes(byKind).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	var runs []models.JobRun
	err := s.db.WithContext(ctx).
		Scopes(byKind).
		Order("started_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, total, nil
}

// GetRun loads a run with its rows in processing order.
func (s *Store) GetRun(ctx context.Context, id string) (*models.JobRun, error) {
	var run models.JobRun
	err := s.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("row_number ASC")
		}).
		First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}
