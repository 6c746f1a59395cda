package postgres

import (
	"strings"

	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

// orderByCreation keeps question and answer order stable so that the shuffle is the only
// source of presentation order.
func orderByCreation(table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".created_at ASC").Order(table + ".id ASC")
	}
}

// orderByQuestionCreation orders an attempt's questions the way the test presents them
// canonically.
func orderByQuestionCreation(db *gorm.DB) *gorm.DB {
	return db.
		Joins("JOIN questions ON questions.id = attempt_questions.question_id").
		Order("questions.created_at ASC").
		Order("questions.id ASC")
}

var attemptSortColumns = map[string]string{
	"created_at": "attempts.created_at",
	"time_spent": "attempts.time_spent",
}

func applyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.StudentID != nil {
		query = query.Where("attempts.student_id = ?", *filters.StudentID)
	}
	if filters.TestID != nil {
		query = query.Where("attempts.test_id = ?", *filters.TestID)
	}
	return query
}

func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	column, ok := attemptSortColumns[sortBy]
	if !ok {
		column = attemptSortColumns["created_at"]
	}
	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	query = query.Order(column + " " + direction).Order("attempts.id " + direction)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
