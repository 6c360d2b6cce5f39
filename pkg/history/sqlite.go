package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// OpenSQLite opens (creating if needed) the history database and migrates
// its schema.
func OpenSQLite(path string, log logrus.FieldLogger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.AutoMigrate(&Run{}, &Result{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return &SQLiteStore{db: db, log: log}, nil
}

// Record persists a run together with its results.
func (s *SQLiteStore) Record(ctx context.Context, run *Run) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		s.log.WithError(err).Error("Failed to record run history")
		return err
	}
	s.log.WithFields(logrus.Fields{
		"run":    run.ID.String(),
		"total":  run.Total,
		"passed": run.Passed,
	}).Debug("Run recorded")
	return nil
}

// GetByID retrieves one run with its results.
func (s *SQLiteStore) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).
		Preload("Results").
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// Recent returns the newest runs, most recent first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*Run, error) {
	var runs []*Run
	err := s.db.WithContext(ctx).
		Preload("Results").
		Order("finished_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// ResultsForTest returns the newest outcomes of one test case across runs.
func (s *SQLiteStore) ResultsForTest(ctx context.Context, testID string, limit int) ([]*Result, error) {
	var results []*Result
	err := s.db.WithContext(ctx).
		Joins("JOIN runs ON runs.id = results.run_id").
		Where("results.test_id = ?", testID).
		Order("runs.finished_at DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
