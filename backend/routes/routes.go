package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"eduplatform/backend/config"
	"eduplatform/backend/controllers"
	"eduplatform/backend/files"
	"eduplatform/backend/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, resolver *files.Resolver, log *logrus.Logger) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Guards
	authRequired := middleware.RequireAuth(cfg)
	adminRequired := middleware.RequireAdmin(db)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	app.Get("/api/user/profile", authRequired, userController.GetProfile)
	app.Put("/api/user/profile", authRequired, userController.UpdateProfile)

	// Courses routes
	coursesController := controllers.NewCoursesController(db, cfg)
	courses := app.Group("/api/courses", authRequired)
	courses.Get("/", coursesController.GetCourses)
	courses.Get("/:id", coursesController.GetCourseDetails)
	courses.Post("/:id/enroll", coursesController.Enroll)

	// Mock-test routes
	mockTestController := controllers.NewMockTestController(db, cfg)
	app.Get("/api/courses/:courseId/tests", authRequired, middleware.RequireEnrollment(db), mockTestController.ListCourseTests)
	mocktest := app.Group("/api/mocktest", authRequired)
	mocktest.Post("/start", mockTestController.StartTest)
	mocktest.Get("/results", mockTestController.ListResults)
	mocktest.Get("/results/:id", mockTestController.GetResult)
	mocktest.Post("/:testId/answer", mockTestController.SubmitAnswer)
	mocktest.Post("/:testId/submit", mockTestController.SubmitTest)
	mocktest.Get("/:testId", mockTestController.GetTestSession)

	// File routes
	filesController := controllers.NewFilesController(resolver, log)
	app.Get("/api/files/:fileId", authRequired, filesController.GetFileURL)

	// Admin routes
	admin := app.Group("/api/admin", authRequired, adminRequired)
	admin.Post("/courses", coursesController.CreateCourse)
	admin.Post("/mocktests", mockTestController.CreateMockTest)
}
