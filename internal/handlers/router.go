package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/exam-service/internal/auth"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	resolver       auth.Resolver
	testHandler    *TestHandler
	attemptHandler *AttemptHandler
	gradingHandler *GradingHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	resolver auth.Resolver,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		resolver:       resolver,
		testHandler:    NewTestHandler(serviceManager.Test(), logger),
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), logger),
		gradingHandler: NewGradingHandler(serviceManager.Grading(), serviceManager.Export(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	staff := auth.RequireRoles(models.RoleAdministrator, models.RoleInstructor)
	adminOnly := auth.RequireRoles(models.RoleAdministrator)

	// Every API route needs a verified credential
	v1 := router.Group("/api/v1", auth.Authenticate(hm.resolver))
	{
		tests := v1.Group("/tests")
		{
			tests.GET("", hm.testHandler.ListTests)
			tests.GET("/:id", hm.testHandler.GetTest)
			tests.POST("", adminOnly, hm.testHandler.CreateTest)
			tests.PUT("/:id", adminOnly, hm.testHandler.UpdateTest)
			tests.DELETE("/:id", adminOnly, hm.testHandler.DeleteTest)
			tests.POST("/:id/questions", staff, hm.testHandler.AddQuestion)
			tests.GET("/:id/results/export", staff, hm.gradingHandler.ExportResults)
		}

		v1.GET("/questions/:id", staff, hm.testHandler.GetQuestion)
		v1.PUT("/questions/:id", staff, hm.testHandler.UpdateQuestion)
		v1.DELETE("/questions/:id", staff, hm.testHandler.DeleteQuestion)
		v1.DELETE("/answers/:id", staff, hm.testHandler.DeleteAnswer)

		attempts := v1.Group("/attempts")
		{
			attempts.POST("", hm.attemptHandler.AdmitAttempt)
			attempts.POST("/check", hm.attemptHandler.CheckAttempt)
			attempts.POST("/calculate/:id", hm.gradingHandler.GradeAttempt)
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/selections", hm.attemptHandler.RecordSelection)
			attempts.DELETE("/:id", staff, hm.attemptHandler.DeleteAttempt)
			attempts.DELETE("", adminOnly, hm.attemptHandler.DeleteAllAttempts)
		}
	}
}

// HealthCheck answers liveness probes
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "exam-service",
	})
}
