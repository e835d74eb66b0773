package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"eduplatform/backend/config"
	"eduplatform/backend/models"
	"eduplatform/backend/utils"
)

// RequireAuth verifies the bearer token and stores the user id in locals
// for downstream handlers.
func RequireAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals("userID", userID)
		return c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsAdmin(db, utils.CurrentUserID(c)) {
			return utils.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

// RequireEnrollment guards routes carrying a :courseId param. Routes that
// receive the course id in the request body call IsEnrolled directly.
func RequireEnrollment(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, err := strconv.Atoi(c.Params("courseId"))
		if err != nil {
			return utils.BadRequest(c, "Invalid course ID")
		}
		if !IsEnrolled(db, utils.CurrentUserID(c), uint(courseID)) {
			return utils.Forbidden(c, "Not enrolled in this course")
		}
		return c.Next()
	}
}

func IsAdmin(db *gorm.DB, userID uint) bool {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return false
	}
	return user.IsAdmin()
}

func IsEnrolled(db *gorm.DB, userID, courseID uint) bool {
	var count int64
	db.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count)
	return count > 0
}
