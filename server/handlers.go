package server

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/spektr-org/gssdash"
	"github.com/spektr-org/gssdash/export"
	"github.com/spektr-org/gssdash/gss"
	"github.com/spektr-org/gssdash/render"
	"github.com/spektr-org/gssdash/schema"
	"github.com/spektr-org/gssdash/views"
)

//go:embed summary.md
var summaryMarkdown []byte

// Query parameter shorthands for selector ids.
var queryAliases = map[string][]string{
	"region":  {views.SelectorRegion, views.SelectorRegionScatter},
	"feature": {views.SelectorBarFeature},
	"groupby": {views.SelectorGroupBy},
}

// selectionFromQuery maps query parameters to selector values. Selector ids
// are accepted as parameter names alongside the short aliases.
func selectionFromQuery(q url.Values) views.Selection {
	sel := views.Selection{}
	for key, vals := range q {
		if ids, ok := queryAliases[key]; ok {
			for _, id := range ids {
				sel[id] = append(sel[id], vals...)
			}
			continue
		}
		switch key {
		case views.SelectorRegion, views.SelectorRegionScatter, views.SelectorBarFeature, views.SelectorGroupBy:
			sel[key] = append(sel[key], vals...)
		}
	}
	return sel
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": gssdash.Version,
		"rows":    s.data.Len(),
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Options())
}

type viewInfo struct {
	ID      string   `json:"id"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	cs := s.dash.Controllers()
	out := make([]viewInfo, 0, len(cs))
	for _, c := range cs {
		out = append(out, viewInfo{ID: c.ID(), Inputs: c.Inputs(), Outputs: c.Outputs()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sel := selectionFromQuery(r.URL.Query())
	if err := s.dash.Validate(sel); err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.dash.Render(mux.Vars(r)["id"], sel)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// DispatchRequest is the body of POST /dispatch.
type DispatchRequest struct {
	State   views.Selection `json:"state"`
	Changed []string        `json:"changed"`
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.State == nil {
		req.State = views.Selection{}
	}
	if err := s.dash.Validate(req.State); err != nil {
		s.fail(w, r, err)
		return
	}
	outputs, err := s.dash.Dispatch(req.State, req.Changed...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outputs)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	format, err := render.ParseFormat(vars["format"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sel := selectionFromQuery(r.URL.Query())
	if err := s.dash.Validate(sel); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.dash.Chart(vars["chart"], sel)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	start := time.Now()
	if err := s.renderer.Render(&buf, res.ChartConfig, format); err != nil {
		s.fail(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.Rendered(vars["chart"], string(format), time.Since(start))
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleExport writes the region-filtered respondents, or with ?chart= the
// series of one chart.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	sel := selectionFromQuery(q)
	if err := s.dash.Validate(sel); err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	name := "gss-respondents"
	if chart := q.Get("chart"); chart != "" {
		res, err := s.dash.Chart(chart, sel)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		name = chart
		err = export.Write(&buf, format, export.ChartTables(res)...)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	} else {
		view := views.FilterByRegion(s.data.View(), sel.Values(views.SelectorRegion))
		if format == export.XLSX {
			err = export.WriteXLSX(&buf, view, gss.Columns)
		} else {
			err = export.WriteCSV(&buf, view, gss.Columns)
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleProfile reports per-field null counts and ranges, region filtered.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sel := selectionFromQuery(r.URL.Query())
	if err := s.dash.Validate(sel); err != nil {
		s.fail(w, r, err)
		return
	}
	view := views.FilterByRegion(s.data.View(), sel.Values(views.SelectorRegion))
	writeJSON(w, http.StatusOK, schema.Profile(view, gss.Schema))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var body bytes.Buffer
	if err := goldmark.Convert(summaryMarkdown, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>GSS Gender Pay Dashboard</title></head><body>\n")
	page.Write(body.Bytes())
	fmt.Fprintf(&page, "<p><em>%s respondents loaded.</em></p>\n</body></html>\n", humanize.Comma(int64(s.data.Len())))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page.Bytes())
}

// ============================================================================
// RESPONSES
// ============================================================================

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, views.ErrUnknownView):
		return http.StatusNotFound
	case errors.Is(err, views.ErrInvalidSelection),
		errors.Is(err, render.ErrUnknownFormat),
		errors.Is(err, render.ErrUnsupported),
		errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: http.StatusText(status), Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
