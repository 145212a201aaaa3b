package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/hputnam/tutordesk/internal/auth"
	"github.com/hputnam/tutordesk/internal/models"
	"github.com/hputnam/tutordesk/internal/repositories"
	"github.com/hputnam/tutordesk/internal/services"
	pkghttp "github.com/hputnam/tutordesk/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds token claims to the request context for testing
// authenticated endpoints
func WithAuthContext(req *http.Request, username string, role models.Role) *http.Request {
	claims := &models.TokenClaims{
		Username: username,
		Role:     role,
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// WithChiRouteContext adds chi URL parameters to request context for testing
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockLoginGuard implements LoginGuardService for testing
type MockLoginGuard struct {
	AttemptLoginFunc    func(ctx context.Context, username, password, ipAddress, userAgent string) (*services.LoginResult, error)
	CheckLockStatusFunc func(ctx context.Context, username string) (*models.LockStatus, error)
	UnlockAccountFunc   func(ctx context.Context, username, requestedBy string, requestedByRole models.Role) error
}

func (m *MockLoginGuard) AttemptLogin(ctx context.Context, username, password, ipAddress, userAgent string) (*services.LoginResult, error) {
	if m.AttemptLoginFunc == nil {
		return nil, &models.InvalidCredentialsError{RemainingAttempts: 2}
	}
	return m.AttemptLoginFunc(ctx, username, password, ipAddress, userAgent)
}

func (m *MockLoginGuard) CheckLockStatus(ctx context.Context, username string) (*models.LockStatus, error) {
	if m.CheckLockStatusFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.CheckLockStatusFunc(ctx, username)
}

func (m *MockLoginGuard) UnlockAccount(ctx context.Context, username, requestedBy string, requestedByRole models.Role) error {
	if m.UnlockAccountFunc == nil {
		return models.ErrNotFound
	}
	return m.UnlockAccountFunc(ctx, username, requestedBy, requestedByRole)
}

// MockAttemptAudit implements AttemptAuditReader for testing
type MockAttemptAudit struct {
	ListByUsernameFunc     func(ctx context.Context, username string, limit int) ([]*models.LoginAttempt, error)
	GetLastSuccessTimeFunc func(ctx context.Context, username string) (*time.Time, error)
}

func (m *MockAttemptAudit) ListByUsername(ctx context.Context, username string, limit int) ([]*models.LoginAttempt, error) {
	if m.ListByUsernameFunc == nil {
		return []*models.LoginAttempt{}, nil
	}
	return m.ListByUsernameFunc(ctx, username, limit)
}

func (m *MockAttemptAudit) GetLastSuccessTime(ctx context.Context, username string) (*time.Time, error) {
	if m.GetLastSuccessTimeFunc == nil {
		return nil, nil
	}
	return m.GetLastSuccessTimeFunc(ctx, username)
}

// MockRosterService implements RosterServiceInterface for testing
type MockRosterService struct {
	GetStudentFunc    func(ctx context.Context, id string) (*models.Student, error)
	ListStudentsFunc  func(ctx context.Context, limit, offset int) ([]*models.Student, error)
	CreateStudentFunc func(ctx context.Context, student *models.Student) (*models.Student, error)
	UpdateStudentFunc func(ctx context.Context, id string, student *models.Student) (*models.Student, error)
	DeleteStudentFunc func(ctx context.Context, id string) error

	GetTeacherFunc    func(ctx context.Context, id string) (*models.Teacher, error)
	ListTeachersFunc  func(ctx context.Context, limit, offset int) ([]*models.Teacher, error)
	CreateTeacherFunc func(ctx context.Context, teacher *models.Teacher) (*models.Teacher, error)
	UpdateTeacherFunc func(ctx context.Context, id string, teacher *models.Teacher) (*models.Teacher, error)
	DeleteTeacherFunc func(ctx context.Context, id string) error

	GetCourseFunc    func(ctx context.Context, id string) (*models.Course, error)
	ListCoursesFunc  func(ctx context.Context, limit, offset int) ([]*models.Course, error)
	CreateCourseFunc func(ctx context.Context, course *models.Course) (*models.Course, error)
	UpdateCourseFunc func(ctx context.Context, id string, course *models.Course) (*models.Course, error)
	DeleteCourseFunc func(ctx context.Context, id string) error

	GetScheduleFunc    func(ctx context.Context, id string) (*models.Schedule, error)
	ListSchedulesFunc  func(ctx context.Context, filter repositories.ScheduleFilter, limit, offset int) ([]*models.Schedule, error)
	CreateScheduleFunc func(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error)
	UpdateScheduleFunc func(ctx context.Context, id string, schedule *models.Schedule) (*models.Schedule, error)
	DeleteScheduleFunc func(ctx context.Context, id string) error
}

func (m *MockRosterService) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	if m.GetStudentFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetStudentFunc(ctx, id)
}

func (m *MockRosterService) ListStudents(ctx context.Context, limit, offset int) ([]*models.Student, error) {
	if m.ListStudentsFunc == nil {
		return nil, nil
	}
	return m.ListStudentsFunc(ctx, limit, offset)
}

func (m *MockRosterService) CreateStudent(ctx context.Context, student *models.Student) (*models.Student, error) {
	if m.CreateStudentFunc == nil {
		return student, nil
	}
	return m.CreateStudentFunc(ctx, student)
}

func (m *MockRosterService) UpdateStudent(ctx context.Context, id string, student *models.Student) (*models.Student, error) {
	if m.UpdateStudentFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateStudentFunc(ctx, id, student)
}

func (m *MockRosterService) DeleteStudent(ctx context.Context, id string) error {
	if m.DeleteStudentFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteStudentFunc(ctx, id)
}

func (m *MockRosterService) GetTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	if m.GetTeacherFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetTeacherFunc(ctx, id)
}

func (m *MockRosterService) ListTeachers(ctx context.Context, limit, offset int) ([]*models.Teacher, error) {
	if m.ListTeachersFunc == nil {
		return nil, nil
	}
	return m.ListTeachersFunc(ctx, limit, offset)
}

func (m *MockRosterService) CreateTeacher(ctx context.Context, teacher *models.Teacher) (*models.Teacher, error) {
	if m.CreateTeacherFunc == nil {
		return teacher, nil
	}
	return m.CreateTeacherFunc(ctx, teacher)
}

func (m *MockRosterService) UpdateTeacher(ctx context.Context, id string, teacher *models.Teacher) (*models.Teacher, error) {
	if m.UpdateTeacherFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateTeacherFunc(ctx, id, teacher)
}

func (m *MockRosterService) DeleteTeacher(ctx context.Context, id string) error {
	if m.DeleteTeacherFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteTeacherFunc(ctx, id)
}

func (m *MockRosterService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	if m.GetCourseFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetCourseFunc(ctx, id)
}

func (m *MockRosterService) ListCourses(ctx context.Context, limit, offset int) ([]*models.Course, error) {
	if m.ListCoursesFunc == nil {
		return nil, nil
	}
	return m.ListCoursesFunc(ctx, limit, offset)
}

func (m *MockRosterService) CreateCourse(ctx context.Context, course *models.Course) (*models.Course, error) {
	if m.CreateCourseFunc == nil {
		return course, nil
	}
	return m.CreateCourseFunc(ctx, course)
}

func (m *MockRosterService) UpdateCourse(ctx context.Context, id string, course *models.Course) (*models.Course, error) {
	if m.UpdateCourseFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateCourseFunc(ctx, id, course)
}

func (m *MockRosterService) DeleteCourse(ctx context.Context, id string) error {
	if m.DeleteCourseFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteCourseFunc(ctx, id)
}

func (m *MockRosterService) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	if m.GetScheduleFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetScheduleFunc(ctx, id)
}

func (m *MockRosterService) ListSchedules(ctx context.Context, filter repositories.ScheduleFilter, limit, offset int) ([]*models.Schedule, error) {
	if m.ListSchedulesFunc == nil {
		return nil, nil
	}
	return m.ListSchedulesFunc(ctx, filter, limit, offset)
}

func (m *MockRosterService) CreateSchedule(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	if m.CreateScheduleFunc == nil {
		return schedule, nil
	}
	return m.CreateScheduleFunc(ctx, schedule)
}

func (m *MockRosterService) UpdateSchedule(ctx context.Context, id string, schedule *models.Schedule) (*models.Schedule, error) {
	if m.UpdateScheduleFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateScheduleFunc(ctx, id, schedule)
}

func (m *MockRosterService) DeleteSchedule(ctx context.Context, id string) error {
	if m.DeleteScheduleFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteScheduleFunc(ctx, id)
}
