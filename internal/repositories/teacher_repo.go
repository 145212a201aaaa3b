package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hputnam/tutordesk/internal/database"
	"github.com/hputnam/tutordesk/internal/models"
)

const teacherColumns = `id, account_id, first_name, last_name, email, phone, subjects, active, created_at, updated_at`

type TeacherRepository struct {
	db *database.DB
}

func NewTeacherRepository(db *database.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

func scanTeacherRow(scanner rowScanner) (*models.Teacher, error) {
	var t models.Teacher
	err := scanner.Scan(
		&t.ID, &t.AccountID, &t.FirstName, &t.LastName, &t.Email, &t.Phone,
		&t.Subjects, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &t, nil
}

func (r *TeacherRepository) GetByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE id = $1`

	return scanTeacherRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *TeacherRepository) List(ctx context.Context, limit, offset int) ([]*models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers ORDER BY last_name, first_name LIMIT $1 OFFSET $2`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query teachers: %w", err)
	}
	defer rows.Close()

	teachers := make([]*models.Teacher, 0)
	for rows.Next() {
		t, err := scanTeacherRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan teacher: %w", err)
		}
		teachers = append(teachers, t)
	}

	return teachers, rows.Err()
}

func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) (*models.Teacher, error) {
	teacher.ID = uuid.New().String()

	now := time.Now()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now

	if teacher.Subjects == nil {
		teacher.Subjects = []string{}
	}

	query := `
		INSERT INTO teachers (id, account_id, first_name, last_name, email, phone, subjects, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + teacherColumns

	return scanTeacherRow(r.db.Pool.QueryRow(ctx, query,
		teacher.ID, teacher.AccountID, teacher.FirstName, teacher.LastName,
		teacher.Email, teacher.Phone, teacher.Subjects, teacher.Active,
		teacher.CreatedAt, teacher.UpdatedAt,
	))
}

func (r *TeacherRepository) Update(ctx context.Context, id string, teacher *models.Teacher) (*models.Teacher, error) {
	if teacher.Subjects == nil {
		teacher.Subjects = []string{}
	}

	query := `
		UPDATE teachers
		SET account_id = $1, first_name = $2, last_name = $3, email = $4, phone = $5, subjects = $6, active = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING ` + teacherColumns

	return scanTeacherRow(r.db.Pool.QueryRow(ctx, query,
		teacher.AccountID, teacher.FirstName, teacher.LastName, teacher.Email,
		teacher.Phone, teacher.Subjects, teacher.Active, id,
	))
}

func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
