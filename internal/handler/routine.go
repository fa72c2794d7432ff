package handler

import (
	"encoding/json"
	"net/http"

	"github.com/vkuznets/taskboard/internal/model"
	"github.com/vkuznets/taskboard/pkg/respond"
)

type createRoutineRequest struct {
	Title string `json:"title"`
	Notes string `json:"notes"`
}

func (h *Handler) CreateRoutine(w http.ResponseWriter, r *http.Request) {
	var req createRoutineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	routine, err := h.service.CreateRoutine(r.Context(), req.Title, req.Notes)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, routine)
}

func (h *Handler) GetRoutine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	routine, err := h.service.GetRoutine(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, routine)
}

func (h *Handler) ListRoutines(w http.ResponseWriter, r *http.Request) {
	routines, err := h.service.ListRoutines(r.Context(), r.URL.Query().Get("archived") == "true")
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, routines)
}

func (h *Handler) UpdateRoutine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	var patch model.RoutinePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	routine, err := h.service.UpdateRoutine(r.Context(), id, patch)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, routine)
}

func (h *Handler) PauseRoutine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	routine, err := h.service.PauseRoutine(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, routine)
}

func (h *Handler) ResumeRoutine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	routine, err := h.service.ResumeRoutine(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, routine)
}

func (h *Handler) CompleteRoutine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	routine, err := h.service.CompleteRoutine(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, routine)
}

func (h *Handler) ArchiveRoutine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	routine, err := h.service.ArchiveRoutine(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, routine)
}

func (h *Handler) RestoreRoutine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	routine, err := h.service.RestoreRoutine(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, routine)
}
