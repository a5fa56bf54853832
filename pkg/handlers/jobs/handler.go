package jobs

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/de-tools/realty-atlas/pkg/adapters"
	"github.com/de-tools/realty-atlas/pkg/handlers/respond"
	"github.com/de-tools/realty-atlas/pkg/models/api"
	"github.com/de-tools/realty-atlas/pkg/services/explorer"
	"github.com/de-tools/realty-atlas/pkg/services/workflow"
	"github.com/go-chi/chi/v5"
)

const (
	kindJobNotFound = "job_not_found"
	kindJobConflict = "job_conflict"
	kindJobExpired  = "job_result_expired"
)

type Handler struct {
	controller workflow.Controller
}

func NewHandler(ctrl workflow.Controller) *Handler {
	return &Handler{controller: ctrl}
}

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req api.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WithStatus(w, r, http.StatusBadRequest, respond.KindBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Region == "" || req.From == "" || req.To == "" {
		respond.WithStatus(w, r, http.StatusBadRequest, respond.KindBadRequest, "region, from and to are required")
		return
	}

	job, err := h.controller.Start(r.Context(), explorer.Query{Region: req.Region, From: req.From, To: req.To})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusAccepted, adapters.MapDomainJobToAPI(job))
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.controller.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]api.Job, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, adapters.MapDomainJobToAPI(j))
	}
	respond.JSON(w, r, http.StatusOK, out)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.controller.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, adapters.MapDomainJobToAPI(job))
}

func (h *Handler) GetJobResult(w http.ResponseWriter, r *http.Request) {
	table, err := h.controller.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, adapters.MapDomainTableToAPI(table))
}

func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.controller.Cancel(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	job, err := h.controller.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, adapters.MapDomainJobToAPI(job))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workflow.ErrJobNotFound):
		respond.WithStatus(w, r, http.StatusNotFound, kindJobNotFound, err.Error())
	case errors.Is(err, workflow.ErrJobRunning), errors.Is(err, workflow.ErrJobNotRunning):
		respond.WithStatus(w, r, http.StatusConflict, kindJobConflict, err.Error())
	case errors.Is(err, workflow.ErrResultUnavailable):
		respond.WithStatus(w, r, http.StatusGone, kindJobExpired, err.Error())
	default:
		respond.Error(w, r, err)
	}
}
