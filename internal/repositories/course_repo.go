package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hputnam/tutordesk/internal/database"
	"github.com/hputnam/tutordesk/internal/models"
)

const courseColumns = `id, name, subject, description, hourly_rate_cents, active, created_at, updated_at`

type CourseRepository struct {
	db *database.DB
}

func NewCourseRepository(db *database.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func scanCourseRow(scanner rowScanner) (*models.Course, error) {
	var c models.Course
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Subject, &c.Description,
		&c.HourlyRate, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	return scanCourseRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *CourseRepository) List(ctx context.Context, limit, offset int) ([]*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses ORDER BY name LIMIT $1 OFFSET $2`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := make([]*models.Course, 0)
	for rows.Next() {
		c, err := scanCourseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}

	return courses, rows.Err()
}

func (r *CourseRepository) Create(ctx context.Context, course *models.Course) (*models.Course, error) {
	course.ID = uuid.New().String()

	now := time.Now()
	course.CreatedAt = now
	course.UpdatedAt = now

	query := `
		INSERT INTO courses (id, name, subject, description, hourly_rate_cents, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + courseColumns

	return scanCourseRow(r.db.Pool.QueryRow(ctx, query,
		course.ID, course.Name, course.Subject, course.Description,
		course.HourlyRate, course.Active, course.CreatedAt, course.UpdatedAt,
	))
}

func (r *CourseRepository) Update(ctx context.Context, id string, course *models.Course) (*models.Course, error) {
	query := `
		UPDATE courses
		SET name = $1, subject = $2, description = $3, hourly_rate_cents = $4, active = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING ` + courseColumns

	return scanCourseRow(r.db.Pool.QueryRow(ctx, query,
		course.Name, course.Subject, course.Description, course.HourlyRate, course.Active, id,
	))
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
