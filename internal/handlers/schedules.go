package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hputnam/tutordesk/internal/models"
	"github.com/hputnam/tutordesk/internal/repositories"
	pkghttp "github.com/hputnam/tutordesk/pkg/http"
)

// ScheduleRequest represents the request body for creating or updating a
// weekly lesson slot. Times are clock times in "15:04" form.
type ScheduleRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	TeacherID string `json:"teacher_id" validate:"required,uuid"`
	CourseID  string `json:"course_id" validate:"required,uuid"`
	Weekday   int    `json:"weekday" validate:"gte=0,lte=6"`
	StartTime string `json:"start_time" validate:"required,len=5"`
	EndTime   string `json:"end_time" validate:"required,len=5"`
	Room      string `json:"room" validate:"omitempty,max=32"`
	Notes     string `json:"notes" validate:"omitempty,max=512"`
}

// ListSchedulesResponse represents a page of schedule slots
type ListSchedulesResponse struct {
	Schedules []*models.Schedule `json:"schedules"`
	Total     int                `json:"total"`
}

func (req *ScheduleRequest) toModel() *models.Schedule {
	return &models.Schedule{
		StudentID: req.StudentID,
		TeacherID: req.TeacherID,
		CourseID:  req.CourseID,
		Weekday:   req.Weekday,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Room:      strings.TrimSpace(req.Room),
		Notes:     strings.TrimSpace(req.Notes),
	}
}

func (h *RosterHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	schedule, err := h.service.GetSchedule(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Schedule not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, schedule)
}

// ListSchedules retrieves schedule slots, optionally filtered by student,
// teacher or weekday
//
// @Summary List schedules
// @Param student_id query string false "Filter by student"
// @Param teacher_id query string false "Filter by teacher"
// @Param weekday query int false "Filter by weekday (0=Sunday)"
// @Produce json
// @Success 200 {object} ListSchedulesResponse
// @Router /schedules [get]
func (h *RosterHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	filter := repositories.ScheduleFilter{
		StudentID: r.URL.Query().Get("student_id"),
		TeacherID: r.URL.Query().Get("teacher_id"),
	}
	if wd := r.URL.Query().Get("weekday"); wd != "" {
		n, perr := strconv.Atoi(wd)
		if perr != nil || n < 0 || n > 6 {
			pkghttp.WriteBadRequest(w, "invalid weekday parameter")
			return
		}
		filter.Weekday = &n
	}

	schedules, err := h.service.ListSchedules(r.Context(), filter, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ListSchedulesResponse{
		Schedules: schedules,
		Total:     len(schedules),
	})
}

func (h *RosterHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	schedule, err := h.service.CreateSchedule(r.Context(), req.toModel())
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Referenced student, teacher or course does not exist")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, schedule)
}

func (h *RosterHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	schedule, err := h.service.UpdateSchedule(r.Context(), id, req.toModel())
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Schedule not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Referenced student, teacher or course does not exist")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, schedule)
}

func (h *RosterHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteSchedule(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Schedule not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
