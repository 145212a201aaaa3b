package models

import "time"

// Schedule is a recurring weekly lesson slot binding a student, a teacher
// and a course. StartTime and EndTime are clock times in "15:04" form.
type Schedule struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	TeacherID string    `json:"teacher_id"`
	CourseID  string    `json:"course_id"`
	Weekday   int       `json:"weekday"` // 0=Sunday .. 6=Saturday
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Room      string    `json:"room"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
