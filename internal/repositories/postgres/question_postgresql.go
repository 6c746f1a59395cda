package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	// Answers are created through the association
	if err := q.getDB(tx).WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error) {
	var question models.Question
	err := q.getDB(tx).WithContext(ctx).
		Preload("Answers", orderByCreation("answers")).
		First(&question, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	result := q.getDB(tx).WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", question.ID).
		Updates(map[string]interface{}{
			"question":                        question.Text,
			"allows_multiple_correct_answers": question.AllowsMultipleCorrectAnswers,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	result := q.getDB(tx).WithContext(ctx).Delete(&models.Question{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (q *QuestionPostgreSQL) HasAttemptHistory(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	var count int64
	err := q.getDB(tx).WithContext(ctx).
		Model(&models.AttemptQuestion{}).
		Where("question_id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count attempt questions: %w", err)
	}
	return count > 0, nil
}

func (q *QuestionPostgreSQL) GetAnswer(ctx context.Context, tx *gorm.DB, id string) (*models.Answer, error) {
	var answer models.Answer
	if err := q.getDB(tx).WithContext(ctx).First(&answer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (q *QuestionPostgreSQL) DeleteAnswer(ctx context.Context, tx *gorm.DB, id string) error {
	result := q.getDB(tx).WithContext(ctx).Delete(&models.Answer{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete answer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
