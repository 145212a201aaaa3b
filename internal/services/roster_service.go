package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hputnam/tutordesk/internal/models"
	"github.com/hputnam/tutordesk/internal/repositories"
)

// StudentRepository defines the interface for student data access
type StudentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, limit, offset int) ([]*models.Student, error)
	Create(ctx context.Context, student *models.Student) (*models.Student, error)
	Update(ctx context.Context, id string, student *models.Student) (*models.Student, error)
	Delete(ctx context.Context, id string) error
}

// TeacherRepository defines the interface for teacher data access
type TeacherRepository interface {
	GetByID(ctx context.Context, id string) (*models.Teacher, error)
	List(ctx context.Context, limit, offset int) ([]*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) (*models.Teacher, error)
	Update(ctx context.Context, id string, teacher *models.Teacher) (*models.Teacher, error)
	Delete(ctx context.Context, id string) error
}

// CourseRepository defines the interface for course data access
type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, limit, offset int) ([]*models.Course, error)
	Create(ctx context.Context, course *models.Course) (*models.Course, error)
	Update(ctx context.Context, id string, course *models.Course) (*models.Course, error)
	Delete(ctx context.Context, id string) error
}

// ScheduleRepository defines the interface for schedule data access
type ScheduleRepository interface {
	GetByID(ctx context.Context, id string) (*models.Schedule, error)
	List(ctx context.Context, filter repositories.ScheduleFilter, limit, offset int) ([]*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error)
	Update(ctx context.Context, id string, schedule *models.Schedule) (*models.Schedule, error)
	Delete(ctx context.Context, id string) error
}

// RosterService handles the tutoring-center roster: students, teachers,
// courses and the weekly schedule grid. Every operation is a direct
// parameterized query behind validation; the logic lives in the repositories.
type RosterService struct {
	students  StudentRepository
	teachers  TeacherRepository
	courses   CourseRepository
	schedules ScheduleRepository
	logger    *slog.Logger
}

// NewRosterService creates a new RosterService
func NewRosterService(
	students StudentRepository,
	teachers TeacherRepository,
	courses CourseRepository,
	schedules ScheduleRepository,
	logger *slog.Logger,
) *RosterService {
	return &RosterService{
		students:  students,
		teachers:  teachers,
		courses:   courses,
		schedules: schedules,
		logger:    logger,
	}
}

func (s *RosterService) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	return student, s.mapError(err, "student", id)
}

func (s *RosterService) ListStudents(ctx context.Context, limit, offset int) ([]*models.Student, error) {
	students, err := s.students.List(ctx, limit, offset)
	return students, s.mapError(err, "students", "")
}

func (s *RosterService) CreateStudent(ctx context.Context, student *models.Student) (*models.Student, error) {
	created, err := s.students.Create(ctx, student)
	return created, s.mapError(err, "student", "")
}

func (s *RosterService) UpdateStudent(ctx context.Context, id string, student *models.Student) (*models.Student, error) {
	updated, err := s.students.Update(ctx, id, student)
	return updated, s.mapError(err, "student", id)
}

func (s *RosterService) DeleteStudent(ctx context.Context, id string) error {
	return s.mapError(s.students.Delete(ctx, id), "student", id)
}

func (s *RosterService) GetTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.GetByID(ctx, id)
	return teacher, s.mapError(err, "teacher", id)
}

func (s *RosterService) ListTeachers(ctx context.Context, limit, offset int) ([]*models.Teacher, error) {
	teachers, err := s.teachers.List(ctx, limit, offset)
	return teachers, s.mapError(err, "teachers", "")
}

func (s *RosterService) CreateTeacher(ctx context.Context, teacher *models.Teacher) (*models.Teacher, error) {
	created, err := s.teachers.Create(ctx, teacher)
	return created, s.mapError(err, "teacher", "")
}

func (s *RosterService) UpdateTeacher(ctx context.Context, id string, teacher *models.Teacher) (*models.Teacher, error) {
	updated, err := s.teachers.Update(ctx, id, teacher)
	return updated, s.mapError(err, "teacher", id)
}

func (s *RosterService) DeleteTeacher(ctx context.Context, id string) error {
	return s.mapError(s.teachers.Delete(ctx, id), "teacher", id)
}

func (s *RosterService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	return course, s.mapError(err, "course", id)
}

func (s *RosterService) ListCourses(ctx context.Context, limit, offset int) ([]*models.Course, error) {
	courses, err := s.courses.List(ctx, limit, offset)
	return courses, s.mapError(err, "courses", "")
}

func (s *RosterService) CreateCourse(ctx context.Context, course *models.Course) (*models.Course, error) {
	created, err := s.courses.Create(ctx, course)
	return created, s.mapError(err, "course", "")
}

func (s *RosterService) UpdateCourse(ctx context.Context, id string, course *models.Course) (*models.Course, error) {
	updated, err := s.courses.Update(ctx, id, course)
	return updated, s.mapError(err, "course", id)
}

func (s *RosterService) DeleteCourse(ctx context.Context, id string) error {
	return s.mapError(s.courses.Delete(ctx, id), "course", id)
}

func (s *RosterService) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.schedules.GetByID(ctx, id)
	return schedule, s.mapError(err, "schedule", id)
}

func (s *RosterService) ListSchedules(ctx context.Context, filter repositories.ScheduleFilter, limit, offset int) ([]*models.Schedule, error) {
	schedules, err := s.schedules.List(ctx, filter, limit, offset)
	return schedules, s.mapError(err, "schedules", "")
}

// CreateSchedule validates the referenced student, teacher and course before
// inserting. Foreign keys catch stragglers; checking first gives callers a
// useful error instead of a bare constraint violation.
func (s *RosterService) CreateSchedule(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	if err := s.validateScheduleRefs(ctx, schedule); err != nil {
		return nil, err
	}

	created, err := s.schedules.Create(ctx, schedule)
	return created, s.mapError(err, "schedule", "")
}

func (s *RosterService) UpdateSchedule(ctx context.Context, id string, schedule *models.Schedule) (*models.Schedule, error) {
	if err := s.validateScheduleRefs(ctx, schedule); err != nil {
		return nil, err
	}

	updated, err := s.schedules.Update(ctx, id, schedule)
	return updated, s.mapError(err, "schedule", id)
}

func (s *RosterService) DeleteSchedule(ctx context.Context, id string) error {
	return s.mapError(s.schedules.Delete(ctx, id), "schedule", id)
}

func (s *RosterService) validateScheduleRefs(ctx context.Context, schedule *models.Schedule) error {
	if _, err := s.students.GetByID(ctx, schedule.StudentID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrBadRequest
		}
		return models.ErrInternalServer
	}
	if _, err := s.teachers.GetByID(ctx, schedule.TeacherID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrBadRequest
		}
		return models.ErrInternalServer
	}
	if _, err := s.courses.GetByID(ctx, schedule.CourseID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrBadRequest
		}
		return models.ErrInternalServer
	}
	return nil
}

func (s *RosterService) mapError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrNotFound
	}
	if errors.Is(err, models.ErrConflict) {
		return models.ErrConflict
	}
	if errors.Is(err, models.ErrBadRequest) {
		return models.ErrBadRequest
	}
	s.logger.Error("roster store failure",
		slog.String("entity", entity),
		slog.String("id", id),
		slog.Any("error", err))
	return models.ErrInternalServer
}
