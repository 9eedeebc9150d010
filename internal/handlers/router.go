package handlers

import (
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	quizHandler *QuizHandler
	userHandler *UserHandler
	jwtSecret   string
}

func NewHandlerManager(
	serviceManager *services.ServiceManager,
	logger utils.Logger,
	jwtSecret string,
) *HandlerManager {
	return &HandlerManager{
		quizHandler: NewQuizHandler(serviceManager.Quiz, serviceManager.Export, logger),
		userHandler: NewUserHandler(serviceManager.User, logger),
		jwtSecret:   jwtSecret,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	auth := AuthMiddleware(hm.jwtSecret)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// User routes
		users := v1.Group("/users")
		{
			users.POST("/register/instructor", hm.userHandler.RegisterInstructor)
			users.POST("/register/student", hm.userHandler.RegisterStudent)
			users.POST("/login", hm.userHandler.Login)
			users.GET("/me", auth, hm.userHandler.GetCurrentUser)
		}

		// Quiz routes
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", auth, hm.quizHandler.CreateQuiz)
			quizzes.GET("/available", auth, hm.quizHandler.ListAvailableQuizzes)
			quizzes.GET("/instructor", auth, hm.quizHandler.GetInstructorQuizzes)
			quizzes.POST("/submit", auth, hm.quizHandler.SubmitQuiz)

			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.PUT("/:id", auth, hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", auth, hm.quizHandler.DeleteQuiz)
			quizzes.GET("/:id/questions", hm.quizHandler.GetQuizQuestions)
			quizzes.GET("/:id/questions/count", hm.quizHandler.GetQuestionCount)
			quizzes.GET("/:id/results", auth, hm.quizHandler.GetQuizResults)
			quizzes.GET("/:id/results/export", auth, hm.quizHandler.ExportQuizResults)
		}
	}
}
