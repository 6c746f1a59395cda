package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type TestPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewTestPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.TestRepository {
	return &TestPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (t *TestPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

func aggregateKey(id string) string {
	return fmt.Sprintf("aggregate:%s", id)
}

func (t *TestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	if err := t.getDB(tx).WithContext(ctx).Omit("Subject").Create(test).Error; err != nil {
		return fmt.Errorf("failed to create test: %w", err)
	}
	return nil
}

func (t *TestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Test, error) {
	var test models.Test
	if err := t.getDB(tx).WithContext(ctx).Preload("Subject").First(&test, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (t *TestPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	var tests []*models.Test
	var total int64

	query := t.getDB(tx).WithContext(ctx).Model(&models.Test{})
	if filters.SubjectID != nil {
		query = query.Where("tests.subject_id = ?", *filters.SubjectID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tests: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	err := query.
		Preload("Subject").
		Order("tests.created_at DESC").Order("tests.id ASC").
		Find(&tests).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, total, nil
}

// GetAggregate loads the test with its subject, questions and answers. Outside a
// transaction the attempt-free aggregate is served from cache; inside one it is always read
// from the database so the caller sees its own uncommitted writes. Attempts are never cached.
func (t *TestPostgreSQL) GetAggregate(ctx context.Context, tx *gorm.DB, id string, opts repositories.AggregateOptions) (*models.Test, error) {
	load := func() (*models.Test, error) {
		var dbTest models.Test
		err := t.getDB(tx).WithContext(ctx).
			Preload("Subject").
			Preload("Questions", orderByCreation("questions")).
			Preload("Questions.Answers", orderByCreation("answers")).
			First(&dbTest, "id = ?", id).Error
		if err != nil {
			return nil, err
		}
		return &dbTest, nil
	}

	var test *models.Test
	if tx != nil {
		loaded, err := load()
		if err != nil {
			return nil, err
		}
		test = loaded
	} else {
		test = &models.Test{}
		err := t.cacheManager.Test.CacheOrExecute(ctx, aggregateKey(id), test, t.cacheManager.TestTTL, func() (interface{}, error) {
			return load()
		})
		if err != nil {
			return nil, err
		}
	}

	if opts.IncludeAttempts {
		var attempts []models.Attempt
		err := t.getDB(tx).WithContext(ctx).
			Where("test_id = ?", id).
			Preload("Student").
			Preload("Questions", orderByQuestionCreation).
			Preload("Questions.Answers").
			Preload("Questions.Answers.Answer").
			Order("created_at ASC").Order("id ASC").
			Find(&attempts).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load attempts: %w", err)
		}
		test.Attempts = attempts
	}

	return test, nil
}

// UpdateMetadata changes name, type, time limit and subject. Questions are untouched.
func (t *TestPostgreSQL) UpdateMetadata(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	result := t.getDB(tx).WithContext(ctx).
		Model(&models.Test{}).
		Where("id = ?", test.ID).
		Updates(map[string]interface{}{
			"name":       test.Name,
			"type":       test.Type,
			"time_limit": test.TimeLimit,
			"subject_id": test.SubjectID,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update test: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (t *TestPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	result := t.getDB(tx).WithContext(ctx).Delete(&models.Test{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete test: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// InvalidateAggregate drops the cached aggregate. Call it after the writing transaction has
// committed, otherwise a concurrent reader can cache the pre-commit rows again.
func (t *TestPostgreSQL) InvalidateAggregate(ctx context.Context, id string) {
	cache.SafeInvalidate(ctx, t.cacheManager.Test, aggregateKey(id))
}

func (t *TestPostgreSQL) HasAttempts(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	var count int64
	err := t.getDB(tx).WithContext(ctx).
		Model(&models.Attempt{}).
		Where("test_id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count > 0, nil
}

func (t *TestPostgreSQL) GetSubject(ctx context.Context, tx *gorm.DB, id string) (*models.Subject, error) {
	var subject models.Subject
	if err := t.getDB(tx).WithContext(ctx).First(&subject, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}
