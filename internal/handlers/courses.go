package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hputnam/tutordesk/internal/models"
	pkghttp "github.com/hputnam/tutordesk/pkg/http"
)

// CourseRequest represents the request body for creating or updating a course
type CourseRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=128"`
	Subject     string `json:"subject" validate:"required,min=1,max=64"`
	Description string `json:"description" validate:"omitempty,max=1024"`
	HourlyRate  int    `json:"hourly_rate" validate:"gte=0"` // cents
	Active      bool   `json:"active"`
}

// ListCoursesResponse represents a page of courses
type ListCoursesResponse struct {
	Courses []*models.Course `json:"courses"`
	Total   int              `json:"total"`
}

func (req *CourseRequest) toModel() *models.Course {
	return &models.Course{
		Name:        strings.TrimSpace(req.Name),
		Subject:     strings.TrimSpace(req.Subject),
		Description: strings.TrimSpace(req.Description),
		HourlyRate:  req.HourlyRate,
		Active:      req.Active,
	}
}

func (h *RosterHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	course, err := h.service.GetCourse(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Course not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, course)
}

func (h *RosterHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	courses, err := h.service.ListCourses(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ListCoursesResponse{
		Courses: courses,
		Total:   len(courses),
	})
}

func (h *RosterHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	course, err := h.service.CreateCourse(r.Context(), req.toModel())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, course)
}

func (h *RosterHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	course, err := h.service.UpdateCourse(r.Context(), id, req.toModel())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Course not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, course)
}

func (h *RosterHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteCourse(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Course not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
