package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"eduplatform/backend/config"
	"eduplatform/backend/middleware"
	"eduplatform/backend/models"
	"eduplatform/backend/utils"
)

type CoursesController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCoursesController(db *gorm.DB, cfg *config.Config) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg}
}

func (cc *CoursesController) GetCourses(c *fiber.Ctx) error {
	topic := c.Query("topic")
	university := c.Query("university")

	query := cc.DB.Model(&models.Course{})
	if topic != "" {
		query = query.Where("topic LIKE ?", "%"+topic+"%")
	}
	if university != "" {
		query = query.Where("university LIKE ?", "%"+university+"%")
	}

	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	userID := utils.CurrentUserID(c)
	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		result = append(result, fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"description": course.ShortDesc,
			"difficulty":  course.Difficulty,
			"group":       course.RecommendedFor,
			"university":  course.University,
			"topic":       course.Topic,
			"logo_url":    course.LogoURL,
			"enrolled":    middleware.IsEnrolled(cc.DB, userID, course.ID),
		})
	}

	return utils.Success(c, fiber.StatusOK, result)
}

func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":          course.ID,
		"title":       course.Title,
		"short_desc":  course.ShortDesc,
		"description": course.Description,
		"difficulty":  course.Difficulty,
		"group":       course.RecommendedFor,
		"university":  course.University,
		"topic":       course.Topic,
		"author":      course.AuthorID,
		"logo_url":    course.LogoURL,
		"enrolled":    middleware.IsEnrolled(cc.DB, utils.CurrentUserID(c), course.ID),
	})
}

type CreateCourseRequest struct {
	Title          string `json:"title" validate:"required"`
	ShortDesc      string `json:"short_desc"`
	Description    string `json:"description"`
	Difficulty     string `json:"difficulty"`
	RecommendedFor string `json:"recommended_for"`
	University     string `json:"university"`
	Topic          string `json:"topic"`
	LogoURL        string `json:"logo_url"`
}

func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var input CreateCourseRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	input.Title = utils.SanitizeString(input.Title)
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	course := models.Course{
		Title:          input.Title,
		ShortDesc:      input.ShortDesc,
		Description:    input.Description,
		Difficulty:     input.Difficulty,
		RecommendedFor: input.RecommendedFor,
		University:     input.University,
		Topic:          input.Topic,
		LogoURL:        input.LogoURL,
		AuthorID:       utils.CurrentUserID(c),
	}
	if err := cc.DB.Create(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}

	return utils.Created(c, course)
}

// Enroll records the caller's enrollment in a course. Enrolling twice is
// a no-op.
func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	userID := utils.CurrentUserID(c)
	if middleware.IsEnrolled(cc.DB, userID, course.ID) {
		return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Already enrolled"})
	}

	enrollment := models.Enrollment{UserID: userID, CourseID: course.ID}
	if err := cc.DB.Create(&enrollment).Error; err != nil {
		return utils.InternalServerError(c, "Could not enroll")
	}

	return utils.Created(c, fiber.Map{"message": "Enrolled", "course_id": course.ID})
}
