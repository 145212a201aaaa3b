package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hputnam/tutordesk/internal/database"
	"github.com/hputnam/tutordesk/internal/models"
)

const scheduleColumns = `id, student_id, teacher_id, course_id, weekday, start_time, end_time, room, notes, created_at, updated_at`

type ScheduleRepository struct {
	db *database.DB
}

func NewScheduleRepository(db *database.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ScheduleFilter narrows a schedule listing. Zero values mean "any".
type ScheduleFilter struct {
	StudentID string
	TeacherID string
	Weekday   *int
}

func scanScheduleRow(scanner rowScanner) (*models.Schedule, error) {
	var s models.Schedule
	err := scanner.Scan(
		&s.ID, &s.StudentID, &s.TeacherID, &s.CourseID, &s.Weekday,
		&s.StartTime, &s.EndTime, &s.Room, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`

	return scanScheduleRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *ScheduleRepository) List(ctx context.Context, filter ScheduleFilter, limit, offset int) ([]*models.Schedule, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if filter.Weekday != nil {
		args = append(args, *filter.Weekday)
		conditions = append(conditions, fmt.Sprintf("weekday = $%d", len(args)))
	}

	query := `SELECT ` + scheduleColumns + ` FROM schedules`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY weekday, start_time LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]*models.Schedule, 0)
	for rows.Next() {
		s, err := scanScheduleRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}

	return schedules, rows.Err()
}

func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	schedule.ID = uuid.New().String()

	now := time.Now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	query := `
		INSERT INTO schedules (id, student_id, teacher_id, course_id, weekday, start_time, end_time, room, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + scheduleColumns

	return scanScheduleRow(r.db.Pool.QueryRow(ctx, query,
		schedule.ID, schedule.StudentID, schedule.TeacherID, schedule.CourseID,
		schedule.Weekday, schedule.StartTime, schedule.EndTime, schedule.Room,
		schedule.Notes, schedule.CreatedAt, schedule.UpdatedAt,
	))
}

func (r *ScheduleRepository) Update(ctx context.Context, id string, schedule *models.Schedule) (*models.Schedule, error) {
	query := `
		UPDATE schedules
		SET student_id = $1, teacher_id = $2, course_id = $3, weekday = $4, start_time = $5, end_time = $6, room = $7, notes = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING ` + scheduleColumns

	return scanScheduleRow(r.db.Pool.QueryRow(ctx, query,
		schedule.StudentID, schedule.TeacherID, schedule.CourseID, schedule.Weekday,
		schedule.StartTime, schedule.EndTime, schedule.Room, schedule.Notes, id,
	))
}

func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
