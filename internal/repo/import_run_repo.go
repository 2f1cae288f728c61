// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for ImportRun, the
// stored summary of a committed upload that also backs Idempotency-Key replay.
//
// Error semantics:
//   - Missing or expired runs return ErrNotFound.
//   - A second run with the same (user_id, key) returns ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound so callers can match either.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that an import run already exists for the given
// (user_id, key) pair.
var ErrDuplicate = errors.New("duplicate")

// CreateImportRun stores run. ID, CreatedAt and ExpiresAt are filled in when
// zero. A blank key is stored as NULL so keyless uploads never collide.
func CreateImportRun(ctx context.Context, db *gorm.DB, run *domain.ImportRun, ttl time.Duration) error {
	now := time.Now().UTC()
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	if run.ExpiresAt.IsZero() {
		run.ExpiresAt = run.CreatedAt.Add(ttl)
	}
	if run.Key != nil && strings.TrimSpace(*run.Key) == "" {
		run.Key = nil
	}
	if err := db.WithContext(ctx).Create(run).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetImportRunByKey returns the non-expired run stored under (userID, key).
func GetImportRunByKey(ctx context.Context, db *gorm.DB, userID, key string, now time.Time) (*domain.ImportRun, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var run domain.ImportRun
	err := db.WithContext(ctx).
		Where("user_id = ? AND key = ? AND expires_at > ?", userID, key, now).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ReleaseExpiredKey clears the key of the user's expired run stored under
// key, so the key can be used again. The run itself stays in the history.
func ReleaseExpiredKey(ctx context.Context, db *gorm.DB, userID, key string, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.ImportRun{}).
		Where("user_id = ? AND key = ? AND expires_at <= ?", userID, key, now).
		Update("key", nil).Error
}

// GetImportRun fetches a run by id, scoped to its owner.
func GetImportRun(ctx context.Context, db *gorm.DB, id, userID string) (*domain.ImportRun, error) {
	var run domain.ImportRun
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// CountImportRuns returns the number of runs owned by userID.
func CountImportRuns(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ImportRun{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListImportRunsPage returns a page of runs for userID, newest first.
func ListImportRunsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.ImportRun, error) {
	var out []domain.ImportRun
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// isUniqueViolation matches unique-key errors across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key value")
}
