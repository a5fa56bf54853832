// Package explore serves the read-only region and transaction endpoints.
package explore

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/de-tools/realty-atlas/pkg/adapters"
	"github.com/de-tools/realty-atlas/pkg/handlers/respond"
	"github.com/de-tools/realty-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/realty-atlas/pkg/services/explorer"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const formatJSON = "json"

type Handler struct {
	explorer explorer.Explorer
}

func NewHandler(exp explorer.Explorer) *Handler {
	return &Handler{explorer: exp}
}

func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.explorer.ListRegions(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, adapters.MapDomainRegionsToAPI(regions))
}

func (h *Handler) GetRegion(w http.ResponseWriter, r *http.Request) {
	reg, err := h.explorer.GetRegion(r.Context(), chi.URLParam(r, "region"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, adapters.MapDomainRegionToAPI(reg, true))
}

func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(w, r)
	if !ok {
		return
	}

	table, err := h.explorer.GetTransactions(r.Context(), q, nil)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == string(export.FormatCSV) {
		w.Header().Set("Content-Type", export.FormatCSV.ContentType())
		w.Header().Set("Content-Disposition", attachment(q, export.FormatCSV))
		if err := export.WriteCSV(w, table); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write csv")
		}
		return
	}
	respond.JSON(w, r, http.StatusOK, adapters.MapDomainTableToAPI(table))
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(w, r)
	if !ok {
		return
	}

	var dims []string
	for _, d := range strings.Split(r.URL.Query().Get("by"), ",") {
		if d = strings.TrimSpace(d); d != "" {
			dims = append(dims, d)
		}
	}
	if len(dims) == 0 {
		respond.WithStatus(w, r, http.StatusBadRequest, respond.KindBadRequest, "query parameter 'by' is required")
		return
	}

	counts, err := h.explorer.GetSummary(r.Context(), q, dims)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, adapters.MapDomainCountTableToAPI(counts))
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	var exportFormat export.Format
	if format != "" && format != formatJSON {
		f, err := export.ParseFormat(format)
		if err != nil {
			respond.WithStatus(w, r, http.StatusBadRequest, respond.KindBadRequest, err.Error())
			return
		}
		exportFormat = f
	}

	rep, table, err := h.explorer.GetReport(r.Context(), q)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if exportFormat == "" {
		respond.JSON(w, r, http.StatusOK, adapters.MapDomainReportToAPI(rep))
		return
	}

	w.Header().Set("Content-Type", exportFormat.ContentType())
	if exportFormat != export.FormatHTML {
		w.Header().Set("Content-Disposition", attachment(q, exportFormat))
	}
	if err := export.Write(w, exportFormat, rep, table); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("format", format).Msg("failed to write report")
	}
}

func parseQuery(w http.ResponseWriter, r *http.Request) (explorer.Query, bool) {
	values := r.URL.Query()
	q := explorer.Query{
		Region: values.Get("region"),
		From:   values.Get("from"),
		To:     values.Get("to"),
	}

	var missing []string
	for _, name := range []string{"region", "from", "to"} {
		if values.Get(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		respond.WithStatus(w, r, http.StatusBadRequest, respond.KindBadRequest,
			fmt.Sprintf("missing query parameters: %s", strings.Join(missing, ", ")))
		return explorer.Query{}, false
	}
	return q, true
}

func attachment(q explorer.Query, f export.Format) string {
	ext := string(f)
	if f == export.FormatText {
		ext = "txt"
	}
	return fmt.Sprintf(`attachment; filename="transactions_%s_%s.%s"`, q.From, q.To, ext)
}
