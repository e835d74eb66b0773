package models

import "gorm.io/gorm"

type Course struct {
	gorm.Model
	Title          string
	ShortDesc      string
	Description    string
	Difficulty     string // beginner, intermediate, advanced
	RecommendedFor string // group
	University     string
	Topic          string
	AuthorID       uint
	LogoURL        string
}

// Enrollment grants a user access to a course's content and tests.
// The mock-test subsystem only ever checks that a row exists.
type Enrollment struct {
	gorm.Model
	UserID   uint `gorm:"index:idx_enrollment_user_course,unique"`
	CourseID uint `gorm:"index:idx_enrollment_user_course,unique"`
}
