package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hputnam/tutordesk/internal/database"
	"github.com/hputnam/tutordesk/internal/models"
)

const studentColumns = `id, first_name, last_name, email, phone, school, grade, enrolled, created_at, updated_at`

type StudentRepository struct {
	db *database.DB
}

func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func scanStudentRow(scanner rowScanner) (*models.Student, error) {
	var s models.Student
	err := scanner.Scan(
		&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.Phone,
		&s.School, &s.Grade, &s.Enrolled, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	return scanStudentRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *StudentRepository) List(ctx context.Context, limit, offset int) ([]*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY last_name, first_name LIMIT $1 OFFSET $2`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	students := make([]*models.Student, 0)
	for rows.Next() {
		s, err := scanStudentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}

	return students, rows.Err()
}

func (r *StudentRepository) Create(ctx context.Context, student *models.Student) (*models.Student, error) {
	student.ID = uuid.New().String()

	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now

	query := `
		INSERT INTO students (id, first_name, last_name, email, phone, school, grade, enrolled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + studentColumns

	return scanStudentRow(r.db.Pool.QueryRow(ctx, query,
		student.ID, student.FirstName, student.LastName, student.Email, student.Phone,
		student.School, student.Grade, student.Enrolled, student.CreatedAt, student.UpdatedAt,
	))
}

func (r *StudentRepository) Update(ctx context.Context, id string, student *models.Student) (*models.Student, error) {
	query := `
		UPDATE students
		SET first_name = $1, last_name = $2, email = $3, phone = $4, school = $5, grade = $6, enrolled = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING ` + studentColumns

	return scanStudentRow(r.db.Pool.QueryRow(ctx, query,
		student.FirstName, student.LastName, student.Email, student.Phone,
		student.School, student.Grade, student.Enrolled, id,
	))
}

func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
