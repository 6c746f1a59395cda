package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type repositoryManager struct {
	db       *gorm.DB
	test     repositories.TestRepository
	question repositories.QuestionRepository
	attempt  repositories.AttemptRepository
	student  repositories.StudentRepository
}

func NewRepositoryManager(db *gorm.DB, cacheManager *cache.CacheManager) repositories.Repository {
	return &repositoryManager{
		db:       db,
		test:     NewTestPostgreSQL(db, cacheManager),
		question: NewQuestionPostgreSQL(db),
		attempt:  NewAttemptPostgreSQL(db),
		student:  NewStudentPostgreSQL(db),
	}
}

func (r *repositoryManager) Test() repositories.TestRepository { return r.test }
func (r *repositoryManager) Question() repositories.QuestionRepository { return r.question }
func (r *repositoryManager) Attempt() repositories.AttemptRepository { return r.attempt }
func (r *repositoryManager) Student() repositories.StudentRepository { return r.student }

func (r *repositoryManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
