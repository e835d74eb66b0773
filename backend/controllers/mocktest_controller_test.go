package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduplatform/backend/cache"
	"eduplatform/backend/config"
	"eduplatform/backend/files"
	"eduplatform/backend/models"
	"eduplatform/backend/routes"
	"eduplatform/backend/utils"

	"gorm.io/gorm"
)

var (
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
)

const sampleTest = `|Q|2+2?
|A|3
|B|4
|C|5
|D|6
|ANS|B
|EXP|basic math
|MARKS|1
|NEGATIVE|0.25
---
|Q|Capital of France?
|A|Rome
|B|Paris
|C|Berlin
|D|Madrid
|ANS|B
|MARKS|1
|NEGATIVE|0.25`

func TestMain(m *testing.M) {
	cfg = &config.Config{
		DBDriver:   "sqlite",
		DBName:     "file::memory:?cache=shared",
		JWTSecret:  "testsecret",
		AdminEmail: "admin@example.com",
	}

	var err error
	db, err = utils.InitDB(cfg)
	if err != nil {
		panic(err)
	}

	fileCache := cache.NewMemory(time.Minute, 10)
	resolver := files.NewResolver("http://localhost:1", "testtoken", fileCache)

	app = fiber.New()
	routes.SetupRoutes(app, db, cfg, resolver, utils.InitLogger(&config.Config{LogLevel: "error"}))

	code := m.Run()
	fileCache.Stop()
	os.Exit(code)
}

type envelope struct {
	Success   bool                   `json:"success"`
	Data      map[string]interface{} `json:"data"`
	Error     string                 `json:"error"`
	Message   string                 `json:"message"`
	Timestamp string                 `json:"timestamp"`
}

func request(t *testing.T, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp, env
}

var userSeq int

func registerUser(t *testing.T, email string) (uint, string) {
	t.Helper()
	userSeq++
	resp, env := request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": fmt.Sprintf("user%d_%s", userSeq, t.Name()),
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register failed: %+v", env)
	return uint(env.Data["id"].(float64)), env.Data["token"].(string)
}

func newUser(t *testing.T) (uint, string) {
	t.Helper()
	userSeq++
	return registerUser(t, fmt.Sprintf("u%d@example-%s.com", userSeq, "test"))
}

var adminToken string

func getAdminToken(t *testing.T) string {
	t.Helper()
	if adminToken == "" {
		_, adminToken = registerUser(t, "admin@example.com")
	}
	return adminToken
}

func createCourseWithTest(t *testing.T, testType string) uint {
	t.Helper()
	token := getAdminToken(t)

	resp, env := request(t, http.MethodPost, "/api/admin/courses", token, fiber.Map{
		"title": "Philosophy 101 " + t.Name(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	courseID := uint(env.Data["ID"].(float64))

	resp, _ = request(t, http.MethodPost, "/api/admin/mocktests", token, fiber.Map{
		"courseId": courseID,
		"testType": testType,
		"title":    "Midterm",
		"rawText":  sampleTest,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return courseID
}

func enroll(t *testing.T, token string, courseID uint) {
	t.Helper()
	resp, _ := request(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", courseID), token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func startSession(t *testing.T, token string, courseID uint) string {
	t.Helper()
	resp, env := request(t, http.MethodPost, "/api/mocktest/start", token, fiber.Map{
		"courseId": courseID,
		"testType": "mock",
		"duration": 600,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "start failed: %+v", env)
	return env.Data["testId"].(string)
}

func TestStartRequiresEnrollment(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, token := newUser(t)

	resp, _ := request(t, http.MethodPost, "/api/mocktest/start", token, fiber.Map{
		"courseId": courseID,
		"testType": "mock",
		"duration": 600,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var count int64
	db.Model(&models.TestSession{}).Where("course_id = ?", courseID).Count(&count)
	assert.Zero(t, count, "no session may be created on a forbidden start")
}

func TestStartWithoutQuestionsIsNotFound(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, token := newUser(t)
	enroll(t, token, courseID)

	resp, _ := request(t, http.MethodPost, "/api/mocktest/start", token, fiber.Map{
		"courseId": courseID,
		"testType": "final", // no template uploaded for this type
		"duration": 600,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartDoesNotLeakAnswers(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, token := newUser(t)
	enroll(t, token, courseID)

	resp, env := request(t, http.MethodPost, "/api/mocktest/start", token, fiber.Map{
		"courseId": courseID,
		"testType": "mock",
		"duration": 600,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, env.Data["totalQuestions"])

	questions := env.Data["questions"].([]interface{})
	require.Len(t, questions, 2)
	for _, raw := range questions {
		q := raw.(map[string]interface{})
		_, hasAnswer := q["answerIndex"]
		_, hasExplanation := q["explanation"]
		assert.False(t, hasAnswer, "answer index must not reach the client")
		assert.False(t, hasExplanation)
		assert.NotEmpty(t, q["options"])
	}
}

func TestAnswerRecordsAndOverwrites(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, token := newUser(t)
	enroll(t, token, courseID)
	testID := startSession(t, token, courseID)

	resp, env := request(t, http.MethodPost, "/api/mocktest/"+testID+"/answer", token, fiber.Map{
		"questionIndex": 0,
		"answer":        2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, env.Data["currentQuestion"])

	// Re-answering the same question keeps only the latest value.
	resp, _ = request(t, http.MethodPost, "/api/mocktest/"+testID+"/answer", token, fiber.Map{
		"questionIndex": 0,
		"answer":        1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session models.TestSession
	require.NoError(t, db.First(&session, "id = ?", testID).Error)
	assert.Equal(t, map[int]int{0: 1}, session.AnswerMap())
}

func TestAnswerValidation(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, token := newUser(t)
	enroll(t, token, courseID)
	testID := startSession(t, token, courseID)

	// Out-of-range question index.
	resp, _ := request(t, http.MethodPost, "/api/mocktest/"+testID+"/answer", token, fiber.Map{
		"questionIndex": 9,
		"answer":        0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Out-of-range option index.
	resp, _ = request(t, http.MethodPost, "/api/mocktest/"+testID+"/answer", token, fiber.Map{
		"questionIndex": 0,
		"answer":        7,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing fields.
	resp, _ = request(t, http.MethodPost, "/api/mocktest/"+testID+"/answer", token, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown session.
	resp, _ = request(t, http.MethodPost, "/api/mocktest/no-such-id/answer", token, fiber.Map{
		"questionIndex": 0,
		"answer":        0,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnswerOwnershipEnforced(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, owner := newUser(t)
	enroll(t, owner, courseID)
	testID := startSession(t, owner, courseID)

	_, intruder := newUser(t)
	resp, _ := request(t, http.MethodPost, "/api/mocktest/"+testID+"/answer", intruder, fiber.Map{
		"questionIndex": 0,
		"answer":        0,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSubmitScoresAndPersistsResult(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, token := newUser(t)
	enroll(t, token, courseID)
	testID := startSession(t, token, courseID)

	// First question right (B=1), second wrong (index 2).
	for _, a := range []fiber.Map{
		{"questionIndex": 0, "answer": 1},
		{"questionIndex": 1, "answer": 2},
	} {
		resp, _ := request(t, http.MethodPost, "/api/mocktest/"+testID+"/answer", token, a)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, env := request(t, http.MethodPost, "/api/mocktest/"+testID+"/submit", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.EqualValues(t, 1, env.Data["correct"])
	assert.EqualValues(t, 2, env.Data["total"])
	assert.EqualValues(t, 0.75, env.Data["obtainedMarks"])
	assert.EqualValues(t, 2, env.Data["totalMarks"])
	assert.EqualValues(t, 38, env.Data["score"])

	resultID := env.Data["testResultId"].(string)
	var result models.TestResult
	require.NoError(t, db.First(&result, "id = ?", resultID).Error)
	assert.Equal(t, testID, result.TestSessionID)
	assert.Equal(t, float64(38), result.Score)

	var session models.TestSession
	require.NoError(t, db.First(&session, "id = ?", testID).Error)
	assert.Equal(t, models.SessionCompleted, session.Status)
}

func TestDoubleSubmitCreatesOneResult(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, token := newUser(t)
	enroll(t, token, courseID)
	testID := startSession(t, token, courseID)

	resp, _ := request(t, http.MethodPost, "/api/mocktest/"+testID+"/submit", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := request(t, http.MethodPost, "/api/mocktest/"+testID+"/submit", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)

	var count int64
	db.Model(&models.TestResult{}).Where("test_session_id = ?", testID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestAnswerOnCompletedSessionRejected(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, token := newUser(t)
	enroll(t, token, courseID)
	testID := startSession(t, token, courseID)

	resp, _ := request(t, http.MethodPost, "/api/mocktest/"+testID+"/answer", token, fiber.Map{
		"questionIndex": 0,
		"answer":        1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = request(t, http.MethodPost, "/api/mocktest/"+testID+"/submit", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = request(t, http.MethodPost, "/api/mocktest/"+testID+"/answer", token, fiber.Map{
		"questionIndex": 1,
		"answer":        1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var session models.TestSession
	require.NoError(t, db.First(&session, "id = ?", testID).Error)
	assert.Equal(t, map[int]int{0: 1}, session.AnswerMap(), "answers unchanged after rejection")
}

func TestAnswerOnExpiredSessionRejected(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, token := newUser(t)
	enroll(t, token, courseID)
	testID := startSession(t, token, courseID)

	// Push the start time past the duration.
	require.NoError(t, db.Model(&models.TestSession{}).
		Where("id = ?", testID).
		Update("started_at", time.Now().Add(-time.Hour)).Error)

	resp, _ := request(t, http.MethodPost, "/api/mocktest/"+testID+"/answer", token, fiber.Map{
		"questionIndex": 0,
		"answer":        1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Expired sessions can still be finalized.
	resp, _ = request(t, http.MethodPost, "/api/mocktest/"+testID+"/submit", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetSessionSnapshot(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, token := newUser(t)
	enroll(t, token, courseID)
	testID := startSession(t, token, courseID)

	resp, env := request(t, http.MethodGet, "/api/mocktest/"+testID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "in_progress", env.Data["status"])
	assert.False(t, env.Data["isExpired"].(bool))
	remaining := env.Data["remainingTime"].(float64)
	assert.Greater(t, remaining, float64(0))
	assert.LessOrEqual(t, remaining, float64(600))

	// In-progress snapshots hide the answers.
	questions := env.Data["questions"].([]interface{})
	_, hasAnswer := questions[0].(map[string]interface{})["answerIndex"]
	assert.False(t, hasAnswer)

	// Another user cannot read it; an admin can.
	_, other := newUser(t)
	resp, _ = request(t, http.MethodGet, "/api/mocktest/"+testID, other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = request(t, http.MethodGet, "/api/mocktest/"+testID, getAdminToken(t), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCompletedSessionRevealsAnswers(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, token := newUser(t)
	enroll(t, token, courseID)
	testID := startSession(t, token, courseID)

	resp, _ := request(t, http.MethodPost, "/api/mocktest/"+testID+"/submit", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := request(t, http.MethodGet, "/api/mocktest/"+testID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", env.Data["status"])

	questions := env.Data["questions"].([]interface{})
	q := questions[0].(map[string]interface{})
	assert.EqualValues(t, 1, q["answerIndex"], "answers are revealed after completion")
}

func TestResultsListing(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, token := newUser(t)
	enroll(t, token, courseID)
	testID := startSession(t, token, courseID)

	resp, env := request(t, http.MethodPost, "/api/mocktest/"+testID+"/submit", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resultID := env.Data["testResultId"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/mocktest/results", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	listResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var listEnv struct {
		Success bool                     `json:"success"`
		Data    []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listEnv))
	require.Len(t, listEnv.Data, 1)
	assert.Equal(t, resultID, listEnv.Data[0]["id"])

	resp, env = request(t, http.MethodGet, "/api/mocktest/results/"+resultID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, testID, env.Data["testSessionId"])

	// Results are private.
	_, other := newUser(t)
	resp, _ = request(t, http.MethodGet, "/api/mocktest/results/"+resultID, other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateMockTestRequiresAdmin(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")
	_, token := newUser(t)

	resp, _ := request(t, http.MethodPost, "/api/admin/mocktests", token, fiber.Map{
		"courseId": courseID,
		"testType": "mock",
		"rawText":  sampleTest,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateMockTestRejectsEmptyTemplate(t *testing.T) {
	courseID := createCourseWithTest(t, "mock")

	resp, _ := request(t, http.MethodPost, "/api/admin/mocktests", getAdminToken(t), fiber.Map{
		"courseId": courseID,
		"testType": "mock",
		"rawText":  "|Q|no options here",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
