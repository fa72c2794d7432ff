package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vkuznets/taskboard/internal/audit"
	"github.com/vkuznets/taskboard/internal/repo"
	"github.com/vkuznets/taskboard/internal/service"
	"github.com/vkuznets/taskboard/pkg/respond"
)

type Handler struct {
	service *service.BoardService
	logger  *zap.Logger
}

func NewHandler(srv *service.BoardService, logger *zap.Logger) *Handler {
	return &Handler{
		service: srv,
		logger:  logger,
	}
}

// Routes mounts the full API surface. Mounted under /api by the
// server and by the e2e tests.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.actorContext)

	r.Get("/board", h.GetBoard)
	r.Get("/stats", h.Stats)

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Patch("/", h.UpdateTask)
			r.Delete("/", h.DeleteTask)
			r.Post("/move", h.MoveTask)
			r.Post("/complete", h.CompleteTask)
			r.Post("/archive", h.ArchiveTask)
			r.Post("/restore", h.RestoreTask)
			r.Post("/items", h.AddItem)
			r.Patch("/items/{itemID}", h.UpdateItem)
			r.Delete("/items/{itemID}", h.RemoveItem)
		})
	})

	r.Route("/notes", func(r chi.Router) {
		r.Post("/", h.CreateNote)
		r.Get("/", h.ListNotes)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Patch("/", h.UpdateNote)
			r.Post("/archive", h.ArchiveNote)
			r.Post("/restore", h.RestoreNote)
			r.Post("/convert", h.ConvertNote)
		})
	})

	r.Route("/routines", func(r chi.Router) {
		r.Post("/", h.CreateRoutine)
		r.Get("/", h.ListRoutines)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetRoutine)
			r.Patch("/", h.UpdateRoutine)
			r.Post("/pause", h.PauseRoutine)
			r.Post("/resume", h.ResumeRoutine)
			r.Post("/complete", h.CompleteRoutine)
			r.Post("/archive", h.ArchiveRoutine)
			r.Post("/restore", h.RestoreRoutine)
		})
	})

	return r
}

// actorContext tags the request with the caller identity for audit
// records. The agent client sets X-Actor; browsers don't.
func (h *Handler) actorContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithActor(r.Context(), r.Header.Get("X-Actor"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) urlID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrConflict):
		respond.Error(w, r, http.StatusConflict, "conflict")
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, "validation error")
	case errors.Is(err, service.ErrInvalidTransition):
		respond.Error(w, r, http.StatusUnprocessableEntity, "invalid transition")
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
