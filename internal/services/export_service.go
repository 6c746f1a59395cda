package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-service/internal/auth"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet  = "Results"
	verdictsSheet = "Verdicts"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportTestResults renders every attempt of a test as an xlsx workbook: one summary row per
// attempt plus one verdict row per attempt question.
func (s *exportService) ExportTestResults(ctx context.Context, identity *models.Identity, testID string) ([]byte, error) {
	if err := auth.RequireRole(identity, models.RoleAdministrator, models.RoleInstructor); err != nil {
		return nil, err
	}

	if _, err := s.repo.Test().GetByID(ctx, nil, testID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	attempts, err := s.repo.Attempt().GetByTestWithDetails(ctx, nil, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test attempts: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(resultsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if _, err := f.NewSheet(verdictsSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := writeRow(f, resultsSheet, 1, []interface{}{
		"Attempt ID", "Student ID", "Student Name", "Created At", "Time Spent (seconds)",
		"Graded Questions", "Right Answers",
	}); err != nil {
		return nil, err
	}
	if err := writeRow(f, verdictsSheet, 1, []interface{}{
		"Attempt ID", "Question ID", "Selected Answers", "Is Right",
	}); err != nil {
		return nil, err
	}

	verdictRow := 2
	for i, attempt := range attempts {
		graded, right := 0, 0
		for _, aq := range attempt.Questions {
			verdict := "pending"
			if aq.IsRight != nil {
				graded++
				verdict = "false"
				if *aq.IsRight {
					right++
					verdict = "true"
				}
			}
			if err := writeRow(f, verdictsSheet, verdictRow, []interface{}{
				attempt.ID, aq.QuestionID, len(aq.Answers), verdict,
			}); err != nil {
				return nil, err
			}
			verdictRow++
		}

		studentName := ""
		if attempt.Student != nil {
			studentName = attempt.Student.FullName
		}
		if err := writeRow(f, resultsSheet, i+2, []interface{}{
			attempt.ID,
			attempt.StudentID,
			studentName,
			attempt.CreatedAt.Format("2006-01-02 15:04:05"),
			attempt.TimeSpent,
			graded,
			right,
		}); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported test results", "test_id", testID, "attempts", len(attempts), "user_id", identity.SubjectID)

	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}
