package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/kgview/pkg/buildinfo"
	"github.com/matzehuels/kgview/pkg/errors"
	"github.com/matzehuels/kgview/pkg/graph"
	"github.com/matzehuels/kgview/pkg/pipeline"
	"github.com/matzehuels/kgview/pkg/store"
	"github.com/matzehuels/kgview/pkg/view"
)

// viewResponse is the body of POST /api/graph/view.
type viewResponse struct {
	View  *view.Result `json:"view"`
	Graph any          `json:"graph"`
}

type idResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", pipeline.ContentTypes[pipeline.FormatHTML])
	w.Write(s.template)
}

func (s *Server) handleListExamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.examples.List())
}

func (s *Server) handleGetExample(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	payload, err := s.examples.Load(slug)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Debug("loaded example graph", "slug", slug)
	writeJSON(w, http.StatusOK, payload)
}

// handleView converts a raw payload into its view model. The response also
// carries the sanitized payload so clients can offer it for download.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	raw, built, ok := s.build(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewResponse{View: built.View, Graph: graph.SanitizeForBackend(raw)})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = pipeline.DefaultFormat
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}

	_, built, ok := s.build(w, r)
	if !ok {
		return
	}

	opts := s.options(r)
	opts.Formats = []string{format}
	artifacts, err := s.runner.Render(r.Context(), built.View, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.Write(artifacts[format])
}

func (s *Server) handleSaveGraph(w http.ResponseWriter, r *http.Request) {
	raw, built, ok := s.build(w, r)
	if !ok {
		return
	}

	snap, err := store.NewSnapshot(r.URL.Query().Get("title"), raw, built.View)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Save(r.Context(), snap); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("saved graph", "id", snap.ID, "title", snap.Title)
	w.Header().Set("Location", "/api/graphs/"+snap.ID)
	writeJSON(w, http.StatusCreated, idResponse{ID: snap.ID})
}

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}

	list, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleDownloadGraph returns the stored payload as a graph.json attachment.
func (s *Server) handleDownloadGraph(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	payload, err := snap.Payload()
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "decode stored graph"))
		return
	}
	data, err := graph.Marshal(payload)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode graph"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="graph.json"`)
	w.Write(append(data, '\n'))
}

// =============================================================================
// Helpers
// =============================================================================

// options reads build and render options from the query string.
func (s *Server) options(r *http.Request) pipeline.Options {
	q := r.URL.Query()
	opts := pipeline.Options{
		Locale:   q.Get("locale"),
		Source:   "request",
		Template: s.template,
	}
	if opts.Locale == "" {
		opts.Locale = s.locale
	}
	opts.Refresh, _ = strconv.ParseBool(q.Get("refresh"))
	opts.Detailed, _ = strconv.ParseBool(q.Get("detailed"))
	opts.ClusterSubgraphs, _ = strconv.ParseBool(q.Get("clusters"))
	return opts
}

// build decodes the request body and builds its view model. On failure the
// error response has been written and ok is false.
func (s *Server) build(w http.ResponseWriter, r *http.Request) (raw any, built *pipeline.Built, ok bool) {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	raw, err := pipeline.LoadReader(body)
	if err != nil {
		s.writeError(w, r, err)
		return nil, nil, false
	}

	built, err = s.runner.Build(r.Context(), raw, s.options(r))
	if err != nil {
		s.writeError(w, r, err)
		return nil, nil, false
	}
	return raw, built, true
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*store.Snapshot, bool) {
	id := chi.URLParam(r, "id")
	if err := store.ValidateID(id); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	snap, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return snap, true
}
