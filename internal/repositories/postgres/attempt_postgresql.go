package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// Create inserts the attempt. The unique index on (student_id, test_id) decides races
// between concurrent admissions; the loser gets repositories.ErrDuplicateKey.
func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	err := a.getDB(tx).WithContext(ctx).Omit("Student", "Test").Create(attempt).Error
	if repositories.IsDuplicateKeyError(err) {
		return fmt.Errorf("attempt for student %s and test %s: %w", attempt.StudentID, attempt.TestID, repositories.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := a.getDB(tx).WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) {
	var attempt models.Attempt
	err := a.getDB(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&attempt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error) {
	var attempt models.Attempt
	err := a.getDB(tx).WithContext(ctx).
		Preload("Student").
		Preload("Questions", orderByQuestionCreation).
		Preload("Questions.Answers").
		Preload("Questions.Answers.Answer").
		First(&attempt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) ExistsForStudentAndTest(ctx context.Context, tx *gorm.DB, studentID, testID string) (bool, error) {
	var count int64
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.Attempt{}).
		Where("student_id = ? AND test_id = ?", studentID, testID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check attempt: %w", err)
	}
	return count > 0, nil
}

func (a *AttemptPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	var attempts []*models.Attempt
	var total int64

	// apply filter first
	query := a.getDB(tx).WithContext(ctx).Model(&models.Attempt{})
	query = applyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Student").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

// GetByTestWithDetails returns every attempt of a test with student, verdicts and selections.
func (a *AttemptPostgreSQL) GetByTestWithDetails(ctx context.Context, tx *gorm.DB, testID string) ([]*models.Attempt, error) {
	var attempts []*models.Attempt
	err := a.getDB(tx).WithContext(ctx).
		Where("test_id = ?", testID).
		Preload("Student").
		Preload("Questions", orderByQuestionCreation).
		Preload("Questions.Answers").
		Order("created_at ASC").Order("id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts for test: %w", err)
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := a.getDB(tx).WithContext(ctx)

	subQuery := db.Model(&models.AttemptQuestion{}).Select("id").Where("attempt_id = ?", id)
	if err := db.Where("attempt_question_id IN (?)", subQuery).Delete(&models.AttemptAnswer{}).Error; err != nil {
		return fmt.Errorf("failed to delete attempt answers: %w", err)
	}
	if err := db.Where("attempt_id = ?", id).Delete(&models.AttemptQuestion{}).Error; err != nil {
		return fmt.Errorf("failed to delete attempt questions: %w", err)
	}
	if err := db.Where("attempt_id = ?", id).Delete(&models.GradingRun{}).Error; err != nil {
		return fmt.Errorf("failed to delete grading runs: %w", err)
	}

	result := db.Delete(&models.Attempt{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete attempt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAll removes every attempt and the rows hanging off them. It returns the number of
// attempts removed.
func (a *AttemptPostgreSQL) DeleteAll(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := a.getDB(tx).WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})

	if err := db.Delete(&models.AttemptAnswer{}).Error; err != nil {
		return 0, fmt.Errorf("failed to delete attempt answers: %w", err)
	}
	if err := db.Delete(&models.AttemptQuestion{}).Error; err != nil {
		return 0, fmt.Errorf("failed to delete attempt questions: %w", err)
	}
	if err := db.Delete(&models.GradingRun{}).Error; err != nil {
		return 0, fmt.Errorf("failed to delete grading runs: %w", err)
	}

	result := db.Delete(&models.Attempt{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete attempts: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (a *AttemptPostgreSQL) GetAttemptQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID string) (*models.AttemptQuestion, error) {
	var aq models.AttemptQuestion
	err := a.getDB(tx).WithContext(ctx).
		Preload("Answers").
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&aq).Error
	if err != nil {
		return nil, err
	}
	return &aq, nil
}

func (a *AttemptPostgreSQL) CreateAttemptQuestion(ctx context.Context, tx *gorm.DB, aq *models.AttemptQuestion) error {
	if err := a.getDB(tx).WithContext(ctx).Omit("Question", "Answers").Create(aq).Error; err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return fmt.Errorf("attempt question: %w", repositories.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create attempt question: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) EnsureAttemptQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID string) (*models.AttemptQuestion, error) {
	aq := &models.AttemptQuestion{AttemptID: attemptID, QuestionID: questionID}
	// DO NOTHING waits for a concurrent inserter instead of aborting the transaction
	err := a.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoNothing: true,
		}).
		Omit("Question", "Answers").
		Create(aq).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create attempt question: %w", err)
	}
	return a.GetAttemptQuestion(ctx, tx, attemptID, questionID)
}

// ReplaceSelection swaps the stored selection and clears any previous verdict.
func (a *AttemptPostgreSQL) ReplaceSelection(ctx context.Context, tx *gorm.DB, attemptQuestionID string, answerIDs []string) error {
	db := a.getDB(tx).WithContext(ctx)

	if err := db.Where("attempt_question_id = ?", attemptQuestionID).Delete(&models.AttemptAnswer{}).Error; err != nil {
		return fmt.Errorf("failed to clear selection: %w", err)
	}

	if len(answerIDs) > 0 {
		rows := make([]models.AttemptAnswer, 0, len(answerIDs))
		for _, id := range answerIDs {
			rows = append(rows, models.AttemptAnswer{AttemptQuestionID: attemptQuestionID, AnswerID: id})
		}
		if err := db.Omit("Answer").Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to store selection: %w", err)
		}
	}

	err := db.Model(&models.AttemptQuestion{}).
		Where("id = ?", attemptQuestionID).
		Update("is_right", nil).Error
	if err != nil {
		return fmt.Errorf("failed to reset verdict: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) UpdateVerdict(ctx context.Context, tx *gorm.DB, attemptQuestionID string, isRight bool) error {
	result := a.getDB(tx).WithContext(ctx).
		Model(&models.AttemptQuestion{}).
		Where("id = ?", attemptQuestionID).
		Update("is_right", isRight)
	if result.Error != nil {
		return fmt.Errorf("failed to update verdict: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (a *AttemptPostgreSQL) Finalize(ctx context.Context, tx *gorm.DB, id string, at time.Time) error {
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.Attempt{}).
		Where("id = ? AND finalized_at IS NULL", id).
		Update("finalized_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to finalize attempt: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) CreateGradingRun(ctx context.Context, tx *gorm.DB, run *models.GradingRun) error {
	if err := a.getDB(tx).WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record grading run: %w", err)
	}
	return nil
}
