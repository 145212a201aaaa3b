package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hputnam/tutordesk/internal/models"
	"github.com/hputnam/tutordesk/internal/repositories"
)

// RosterServiceInterface defines the interface for roster business logic
type RosterServiceInterface interface {
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	ListStudents(ctx context.Context, limit, offset int) ([]*models.Student, error)
	CreateStudent(ctx context.Context, student *models.Student) (*models.Student, error)
	UpdateStudent(ctx context.Context, id string, student *models.Student) (*models.Student, error)
	DeleteStudent(ctx context.Context, id string) error

	GetTeacher(ctx context.Context, id string) (*models.Teacher, error)
	ListTeachers(ctx context.Context, limit, offset int) ([]*models.Teacher, error)
	CreateTeacher(ctx context.Context, teacher *models.Teacher) (*models.Teacher, error)
	UpdateTeacher(ctx context.Context, id string, teacher *models.Teacher) (*models.Teacher, error)
	DeleteTeacher(ctx context.Context, id string) error

	GetCourse(ctx context.Context, id string) (*models.Course, error)
	ListCourses(ctx context.Context, limit, offset int) ([]*models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) (*models.Course, error)
	UpdateCourse(ctx context.Context, id string, course *models.Course) (*models.Course, error)
	DeleteCourse(ctx context.Context, id string) error

	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	ListSchedules(ctx context.Context, filter repositories.ScheduleFilter, limit, offset int) ([]*models.Schedule, error)
	CreateSchedule(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error)
	UpdateSchedule(ctx context.Context, id string, schedule *models.Schedule) (*models.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// RosterHandler handles roster HTTP requests: students, teachers, courses
// and the weekly schedule. Read routes are open to any authenticated role;
// write routes are mounted behind the manager guard in routes.go.
type RosterHandler struct {
	service RosterServiceInterface
}

// NewRosterHandler creates a new RosterHandler
func NewRosterHandler(service RosterServiceInterface) *RosterHandler {
	return &RosterHandler{service: service}
}

// RegisterReadRoutes registers the read-only roster routes
func (h *RosterHandler) RegisterReadRoutes(router chi.Router) {
	router.Get("/students", h.ListStudents)
	router.Get("/students/{id}", h.GetStudent)
	router.Get("/teachers", h.ListTeachers)
	router.Get("/teachers/{id}", h.GetTeacher)
	router.Get("/courses", h.ListCourses)
	router.Get("/courses/{id}", h.GetCourse)
	router.Get("/schedules", h.ListSchedules)
	router.Get("/schedules/{id}", h.GetSchedule)
}

// RegisterWriteRoutes registers the mutating roster routes
func (h *RosterHandler) RegisterWriteRoutes(router chi.Router) {
	router.Post("/students", h.CreateStudent)
	router.Put("/students/{id}", h.UpdateStudent)
	router.Delete("/students/{id}", h.DeleteStudent)
	router.Post("/teachers", h.CreateTeacher)
	router.Put("/teachers/{id}", h.UpdateTeacher)
	router.Delete("/teachers/{id}", h.DeleteTeacher)
	router.Post("/courses", h.CreateCourse)
	router.Put("/courses/{id}", h.UpdateCourse)
	router.Delete("/courses/{id}", h.DeleteCourse)
	router.Post("/schedules", h.CreateSchedule)
	router.Put("/schedules/{id}", h.UpdateSchedule)
	router.Delete("/schedules/{id}", h.DeleteSchedule)
}

// parsePagination reads limit/offset query parameters with sane bounds.
func parsePagination(r *http.Request) (limit, offset int, err error) {
	limit = 10
	offset = 0

	if l := r.URL.Query().Get("limit"); l != "" {
		n, perr := strconv.Atoi(l)
		if perr != nil || n < 1 || n > 100 {
			return 0, 0, errors.New("invalid limit parameter")
		}
		limit = n
	}

	if o := r.URL.Query().Get("offset"); o != "" {
		n, perr := strconv.Atoi(o)
		if perr != nil || n < 0 || n > 10000 {
			return 0, 0, errors.New("invalid offset parameter")
		}
		offset = n
	}

	return limit, offset, nil
}
