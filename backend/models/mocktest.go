package models

import (
	"encoding/json"
	"strconv"
	"time"

	"gorm.io/gorm"
)

const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
)

// Question is embedded into sessions and results as part of a JSON column.
// Once a session is created its questions never change.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	AnswerIndex   int      `json:"answerIndex"`
	Explanation   string   `json:"explanation,omitempty"`
	Section       string   `json:"section,omitempty"`
	Marks         float64  `json:"marks"`
	NegativeMarks float64  `json:"negativeMarks"`
}

// ClientView strips the solution fields so a question can be sent to a
// client while its test is still running.
func (q Question) ClientView() map[string]interface{} {
	return map[string]interface{}{
		"text":     q.Text,
		"options":  q.Options,
		"section":  q.Section,
		"marks":    q.Marks,
		"negative": q.NegativeMarks,
	}
}

// MockTest is a reusable test template for a course. Questions holds a
// JSON array of Question, parsed once at upload time.
type MockTest struct {
	gorm.Model
	CourseID  uint   `gorm:"index:idx_mocktest_course_type"`
	TestType  string `gorm:"index:idx_mocktest_course_type"`
	Title     string
	Questions string // JSON array of Question
}

func (m *MockTest) QuestionList() ([]Question, error) {
	var qs []Question
	if err := json.Unmarshal([]byte(m.Questions), &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// TestSession is one attempt at a mock test, from start to submit.
type TestSession struct {
	ID              string `gorm:"primaryKey"`
	UserID          uint   `gorm:"index"`
	CourseID        uint
	TestType        string
	Questions       string // JSON array of Question, frozen at start
	Answers         string // JSON object, question index -> selected option index
	Duration        int    // seconds
	CurrentQuestion int
	Status          string // in_progress, completed
	StartedAt       time.Time

	// Set on submit.
	Score          float64
	Correct        int
	TotalQuestions int
	ObtainedMarks  float64
	TotalMarks     float64
	SubmittedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *TestSession) QuestionList() ([]Question, error) {
	var qs []Question
	if err := json.Unmarshal([]byte(s.Questions), &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// AnswerMap decodes the answers column. JSON object keys are strings,
// so indices are converted back to ints; entries with bad keys are dropped.
func (s *TestSession) AnswerMap() map[int]int {
	answers := make(map[int]int)
	if s.Answers == "" {
		return answers
	}
	var raw map[string]int
	if err := json.Unmarshal([]byte(s.Answers), &raw); err != nil {
		return answers
	}
	for k, v := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		answers[idx] = v
	}
	return answers
}

func (s *TestSession) SetAnswers(answers map[int]int) error {
	raw := make(map[string]int, len(answers))
	for idx, v := range answers {
		raw[strconv.Itoa(idx)] = v
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	s.Answers = string(data)
	return nil
}

// RemainingTime reports the seconds left in the attempt, floored at zero.
func (s *TestSession) RemainingTime(now time.Time) int {
	elapsed := int(now.Sub(s.StartedAt).Seconds())
	remaining := s.Duration - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *TestSession) IsExpired(now time.Time) bool {
	return s.Status == SessionInProgress && s.RemainingTime(now) <= 0
}

// TestResult is the durable scored outcome of a completed session.
// Exactly one exists per session; it is never updated after creation.
type TestResult struct {
	ID            string `gorm:"primaryKey"`
	UserID        uint   `gorm:"index"`
	CourseID      uint
	TestSessionID string  `gorm:"uniqueIndex"`
	Score         float64 // percentage 0-100
	Correct       int
	Total         int
	ObtainedMarks float64
	TotalMarks    float64
	Answers       string // JSON object copied from the session
	Questions     string // JSON array copied from the session
	SubmittedAt   time.Time
	CreatedAt     time.Time
}
