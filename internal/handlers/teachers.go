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

// TeacherRequest represents the request body for creating or updating a teacher
type TeacherRequest struct {
	AccountID *string  `json:"account_id" validate:"omitempty,uuid"`
	FirstName string   `json:"first_name" validate:"required,min=1,max=64"`
	LastName  string   `json:"last_name" validate:"required,min=1,max=64"`
	Email     string   `json:"email" validate:"required,email"`
	Phone     string   `json:"phone" validate:"omitempty,max=32"`
	Subjects  []string `json:"subjects" validate:"omitempty,dive,min=1,max=64"`
	Active    bool     `json:"active"`
}

// ListTeachersResponse represents a page of teachers
type ListTeachersResponse struct {
	Teachers []*models.Teacher `json:"teachers"`
	Total    int               `json:"total"`
}

func (req *TeacherRequest) toModel() *models.Teacher {
	return &models.Teacher{
		AccountID: req.AccountID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Subjects:  req.Subjects,
		Active:    req.Active,
	}
}

func (h *RosterHandler) GetTeacher(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	teacher, err := h.service.GetTeacher(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Teacher not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, teacher)
}

func (h *RosterHandler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	teachers, err := h.service.ListTeachers(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ListTeachersResponse{
		Teachers: teachers,
		Total:    len(teachers),
	})
}

func (h *RosterHandler) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	var req TeacherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	teacher, err := h.service.CreateTeacher(r.Context(), req.toModel())
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "Teacher email already exists")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, teacher)
}

func (h *RosterHandler) UpdateTeacher(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req TeacherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	teacher, err := h.service.UpdateTeacher(r.Context(), id, req.toModel())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Teacher not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, teacher)
}

func (h *RosterHandler) DeleteTeacher(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteTeacher(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Teacher not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
