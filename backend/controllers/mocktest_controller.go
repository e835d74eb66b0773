package controllers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eduplatform/backend/config"
	"eduplatform/backend/middleware"
	"eduplatform/backend/models"
	"eduplatform/backend/qparser"
	"eduplatform/backend/scoring"
	"eduplatform/backend/utils"
)

type MockTestController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewMockTestController(db *gorm.DB, cfg *config.Config) *MockTestController {
	return &MockTestController{DB: db, Cfg: cfg}
}

var (
	errSessionNotFound  = errors.New("session not found")
	errNotOwner         = errors.New("not the session owner")
	errAlreadyCompleted = errors.New("session already completed")
	errSessionExpired   = errors.New("session expired")
	errBadQuestionIndex = errors.New("question index out of range")
)

// lockForUpdate takes a row lock on postgres so concurrent writes against
// the same session serialize. sqlite (tests only) has no row locks; its
// single writer gives the same guarantee.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

type CreateMockTestRequest struct {
	CourseID  uint              `json:"courseId" validate:"required"`
	TestType  string            `json:"testType" validate:"required"`
	Title     string            `json:"title"`
	RawText   string            `json:"rawText"`
	Questions []models.Question `json:"questions"`
}

// CreateMockTest uploads a test template for a course. Questions arrive
// either pre-structured or as pipe-format text, which is parsed strictly.
func (mc *MockTestController) CreateMockTest(c *fiber.Ctx) error {
	var input CreateMockTestRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	questions := input.Questions
	if len(questions) == 0 && input.RawText != "" {
		questions = qparser.Parse(input.RawText, qparser.Options{Strict: true})
	}
	if len(questions) == 0 {
		return utils.BadRequest(c, "Template has no valid questions")
	}
	for i, q := range questions {
		if len(q.Options) < 2 || q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
			return utils.ValidationError(c, map[string]string{
				"questions": "question " + strconv.Itoa(i) + " has invalid options or answer",
			})
		}
	}

	var course models.Course
	if err := mc.DB.First(&course, input.CourseID).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	encoded, err := json.Marshal(questions)
	if err != nil {
		return utils.InternalServerError(c, "Could not encode questions")
	}

	mockTest := models.MockTest{
		CourseID:  input.CourseID,
		TestType:  input.TestType,
		Title:     utils.SanitizeString(input.Title),
		Questions: string(encoded),
	}
	if err := mc.DB.Create(&mockTest).Error; err != nil {
		return utils.InternalServerError(c, "Could not create mock test")
	}

	return utils.Created(c, fiber.Map{
		"id":             mockTest.ID,
		"courseId":       mockTest.CourseID,
		"testType":       mockTest.TestType,
		"totalQuestions": len(questions),
	})
}

// ListCourseTests lists the test templates available for a course.
// Routed behind the enrollment guard.
func (mc *MockTestController) ListCourseTests(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("courseId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var tests []models.MockTest
	if err := mc.DB.Where("course_id = ?", courseID).Order("created_at DESC").Find(&tests).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	out := make([]fiber.Map, 0, len(tests))
	for _, t := range tests {
		questions, err := t.QuestionList()
		if err != nil {
			continue
		}
		out = append(out, fiber.Map{
			"id":             t.ID,
			"testType":       t.TestType,
			"title":          t.Title,
			"totalQuestions": len(questions),
		})
	}
	return utils.Success(c, fiber.StatusOK, out)
}

type StartTestRequest struct {
	CourseID uint   `json:"courseId" validate:"required"`
	TestType string `json:"testType" validate:"required"`
	Duration int    `json:"duration" validate:"required,gt=0"` // seconds
}

// StartTest creates a new in-progress session from the course's template.
// The question payload returned to the client carries no answer fields.
func (mc *MockTestController) StartTest(c *fiber.Ctx) error {
	var input StartTestRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	userID := utils.CurrentUserID(c)
	if !middleware.IsEnrolled(mc.DB, userID, input.CourseID) {
		return utils.Forbidden(c, "Not enrolled in this course")
	}

	var mockTest models.MockTest
	err := mc.DB.Where("course_id = ? AND test_type = ?", input.CourseID, input.TestType).
		Order("created_at DESC").
		First(&mockTest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "No questions available for this test")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	questions, err := mockTest.QuestionList()
	if err != nil || len(questions) == 0 {
		return utils.NotFound(c, "No questions available for this test")
	}

	session := models.TestSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		CourseID:  input.CourseID,
		TestType:  input.TestType,
		Questions: mockTest.Questions,
		Answers:   "{}",
		Duration:  input.Duration,
		Status:    models.SessionInProgress,
		StartedAt: time.Now(),
	}
	if err := mc.DB.Create(&session).Error; err != nil {
		return utils.InternalServerError(c, "Could not create test session")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"testId":         session.ID,
		"questions":      clientQuestions(questions),
		"totalQuestions": len(questions),
		"duration":       session.Duration,
		"startedAt":      session.StartedAt,
	})
}

type AnswerRequest struct {
	QuestionIndex *int `json:"questionIndex" validate:"required"`
	Answer        *int `json:"answer" validate:"required"`
}

// SubmitAnswer records one answer on an in-progress session. Re-answering
// a question overwrites the previous choice.
func (mc *MockTestController) SubmitAnswer(c *fiber.Ctx) error {
	var input AnswerRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	sessionID := c.Params("testId")
	userID := utils.CurrentUserID(c)

	var currentQuestion int
	err := mc.DB.Transaction(func(tx *gorm.DB) error {
		var session models.TestSession
		if err := lockForUpdate(tx).First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errSessionNotFound
			}
			return err
		}
		if session.UserID != userID {
			return errNotOwner
		}
		if session.Status != models.SessionInProgress {
			return errAlreadyCompleted
		}
		if session.IsExpired(time.Now()) {
			return errSessionExpired
		}

		questions, err := session.QuestionList()
		if err != nil {
			return err
		}
		idx, selected := *input.QuestionIndex, *input.Answer
		if idx < 0 || idx >= len(questions) {
			return errBadQuestionIndex
		}
		if selected < 0 || selected >= len(questions[idx].Options) {
			return errBadQuestionIndex
		}

		answers := session.AnswerMap()
		answers[idx] = selected
		if err := session.SetAnswers(answers); err != nil {
			return err
		}
		session.CurrentQuestion = idx + 1
		currentQuestion = session.CurrentQuestion

		return tx.Model(&session).
			Updates(map[string]interface{}{
				"answers":          session.Answers,
				"current_question": session.CurrentQuestion,
			}).Error
	})
	if err != nil {
		return mc.sessionError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":         "Answer recorded",
		"currentQuestion": currentQuestion,
	})
}

// SubmitTest finalizes a session: it scores the recorded answers, flips
// the status and writes the immutable result in the same transaction, so
// a completed session without a result can never be observed. The unique
// index on test_session_id keeps retries from creating a second result.
func (mc *MockTestController) SubmitTest(c *fiber.Ctx) error {
	sessionID := c.Params("testId")
	userID := utils.CurrentUserID(c)

	var (
		result  models.TestResult
		summary scoring.Summary
		spent   int
	)
	err := mc.DB.Transaction(func(tx *gorm.DB) error {
		var session models.TestSession
		if err := lockForUpdate(tx).First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errSessionNotFound
			}
			return err
		}
		if session.UserID != userID {
			return errNotOwner
		}
		if session.Status != models.SessionInProgress {
			return errAlreadyCompleted
		}

		questions, err := session.QuestionList()
		if err != nil {
			return err
		}

		now := time.Now()
		summary = scoring.Score(session.AnswerMap(), questions)
		spent = int(now.Sub(session.StartedAt).Seconds())
		if spent > session.Duration {
			spent = session.Duration
		}

		session.Status = models.SessionCompleted
		session.Score = float64(summary.Percentage)
		session.Correct = summary.Correct
		session.TotalQuestions = summary.Total
		session.ObtainedMarks = summary.ObtainedMarks
		session.TotalMarks = summary.TotalMarks
		session.SubmittedAt = &now
		if err := tx.Save(&session).Error; err != nil {
			return err
		}

		result = models.TestResult{
			ID:            uuid.NewString(),
			UserID:        session.UserID,
			CourseID:      session.CourseID,
			TestSessionID: session.ID,
			Score:         float64(summary.Percentage),
			Correct:       summary.Correct,
			Total:         summary.Total,
			ObtainedMarks: summary.ObtainedMarks,
			TotalMarks:    summary.TotalMarks,
			Answers:       session.Answers,
			Questions:     session.Questions,
			SubmittedAt:   now,
		}
		return tx.Create(&result).Error
	})
	if err != nil {
		return mc.sessionError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"testResultId":  result.ID,
		"score":         summary.Percentage,
		"correct":       summary.Correct,
		"total":         summary.Total,
		"obtainedMarks": summary.ObtainedMarks,
		"totalMarks":    summary.TotalMarks,
		"timeSpent":     spent,
	})
}

// GetTestSession returns a session snapshot with advisory timing info.
// Answer fields stay hidden until the session is completed.
func (mc *MockTestController) GetTestSession(c *fiber.Ctx) error {
	sessionID := c.Params("testId")
	userID := utils.CurrentUserID(c)

	var session models.TestSession
	if err := mc.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Test session not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if session.UserID != userID && !middleware.IsAdmin(mc.DB, userID) {
		return utils.Forbidden(c, "Not your test session")
	}

	questions, err := session.QuestionList()
	if err != nil {
		return utils.InternalServerError(c, "Could not decode session questions")
	}

	now := time.Now()
	payload := fiber.Map{
		"testId":          session.ID,
		"courseId":        session.CourseID,
		"testType":        session.TestType,
		"status":          session.Status,
		"duration":        session.Duration,
		"startedAt":       session.StartedAt,
		"currentQuestion": session.CurrentQuestion,
		"answers":         session.AnswerMap(),
		"totalQuestions":  len(questions),
		"remainingTime":   session.RemainingTime(now),
		"isExpired":       session.IsExpired(now),
	}

	if session.Status == models.SessionCompleted {
		payload["questions"] = questions
		payload["score"] = session.Score
		payload["correct"] = session.Correct
		payload["obtainedMarks"] = session.ObtainedMarks
		payload["totalMarks"] = session.TotalMarks
		payload["submittedAt"] = session.SubmittedAt
	} else {
		payload["questions"] = clientQuestions(questions)
	}

	return utils.Success(c, fiber.StatusOK, payload)
}

// ListResults returns the caller's results, newest first.
func (mc *MockTestController) ListResults(c *fiber.Ctx) error {
	var results []models.TestResult
	err := mc.DB.Where("user_id = ?", utils.CurrentUserID(c)).
		Order("submitted_at DESC").
		Find(&results).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	out := make([]fiber.Map, 0, len(results))
	for _, r := range results {
		out = append(out, fiber.Map{
			"id":            r.ID,
			"courseId":      r.CourseID,
			"testSessionId": r.TestSessionID,
			"score":         r.Score,
			"correct":       r.Correct,
			"total":         r.Total,
			"obtainedMarks": r.ObtainedMarks,
			"totalMarks":    r.TotalMarks,
			"submittedAt":   r.SubmittedAt,
		})
	}
	return utils.Success(c, fiber.StatusOK, out)
}

// GetResult returns one result with its full question set, owner or
// admin only.
func (mc *MockTestController) GetResult(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	var result models.TestResult
	if err := mc.DB.First(&result, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Test result not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if result.UserID != userID && !middleware.IsAdmin(mc.DB, userID) {
		return utils.Forbidden(c, "Not your test result")
	}

	var questions []models.Question
	if err := json.Unmarshal([]byte(result.Questions), &questions); err != nil {
		return utils.InternalServerError(c, "Could not decode result questions")
	}
	var answers map[string]int
	if err := json.Unmarshal([]byte(result.Answers), &answers); err != nil {
		answers = map[string]int{}
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":            result.ID,
		"courseId":      result.CourseID,
		"testSessionId": result.TestSessionID,
		"score":         result.Score,
		"correct":       result.Correct,
		"total":         result.Total,
		"obtainedMarks": result.ObtainedMarks,
		"totalMarks":    result.TotalMarks,
		"questions":     questions,
		"answers":       answers,
		"submittedAt":   result.SubmittedAt,
	})
}

func (mc *MockTestController) sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errSessionNotFound):
		return utils.NotFound(c, "Test session not found")
	case errors.Is(err, errNotOwner):
		return utils.Forbidden(c, "Not your test session")
	case errors.Is(err, errAlreadyCompleted):
		return utils.InvalidState(c, "Test already submitted")
	case errors.Is(err, errSessionExpired):
		return utils.InvalidState(c, "Test time has expired")
	case errors.Is(err, errBadQuestionIndex):
		return utils.BadRequest(c, "Invalid question index or answer")
	default:
		return utils.InternalServerError(c, "Could not update test session")
	}
}

func clientQuestions(questions []models.Question) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ClientView())
	}
	return out
}
