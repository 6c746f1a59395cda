package services

import (
	"log/slog"

	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

// ServiceManager wires the services over one repository manager.
type ServiceManager interface {
	Test() TestService
	Attempt() AttemptService
	Grading() GradingService
	Export() ExportService
}

type serviceManager struct {
	test    TestService
	attempt AttemptService
	grading GradingService
	export  ExportService
}

func NewServiceManager(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ServiceManager {
	eventService := NewExamEventService(publisher, logger)

	return &serviceManager{
		test:    NewTestService(repo, NewShuffler(), logger, validator),
		attempt: NewAttemptService(repo, eventService, logger, validator),
		grading: NewGradingService(repo, eventService, logger),
		export:  NewExportService(repo, logger),
	}
}

func (m *serviceManager) Test() TestService { return m.test }
func (m *serviceManager) Attempt() AttemptService { return m.attempt }
func (m *serviceManager) Grading() GradingService { return m.grading }
func (m *serviceManager) Export() ExportService { return m.export }
