// Package server exposes the filter pipeline over HTTP. Every request
// carries its own records; nothing is shared between requests except the
// rate limiter and read-only options.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"tweetsieve/internal/config"
	"tweetsieve/internal/filter"
	"tweetsieve/internal/logging"
	"tweetsieve/internal/metrics"
	"tweetsieve/internal/model"
	"tweetsieve/internal/pipeline"
	"tweetsieve/internal/report"
	"tweetsieve/internal/source"
)

const defaultMaxBody = 10 << 20

type Options struct {
	RPS          float64
	Burst        int
	MaxBodyBytes int64
	Document     report.DocumentOptions
	BaseName     string
}

// OptionsFromConfig picks the server and export settings out of cfg.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		RPS:          cfg.Server.RPS,
		Burst:        cfg.Server.Burst,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Document:     cfg.Export.DocumentOptions(),
		BaseName:     cfg.Export.BaseName,
	}
}

type Server struct {
	opts    Options
	limiter *rate.Limiter
	router  chi.Router
}

func New(opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBody
	}
	if opts.BaseName == "" {
		opts.BaseName = "filtered_tweets"
	}
	s := &Server{opts: opts, limiter: newLimiter(opts.RPS, opts.Burst)}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(countRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(limitRequests(s.limiter))
		r.Post("/filter", s.handleFilter)
		r.Post("/export/{format}", s.handleExport)
	})
	s.router = r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logging.Info("server_start", map[string]any{"addr": addr})
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.Info("server_stop", nil)
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type filterRequest struct {
	Criteria config.FilterConfig `json:"criteria"`
	Records  json.RawMessage     `json:"records"`
}

type skippedRecord struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type filterResponse struct {
	Count      int             `json:"count"`
	Skipped    []skippedRecord `json:"skipped"`
	QueryError string          `json:"query_error,omitempty"`
	Records    []*model.Record `json:"records"`
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	records, c, ok := s.decode(w, r)
	if !ok {
		return
	}
	o := pipeline.Run(records, c)
	resp := filterResponse{
		Count:   len(o.Records),
		Skipped: make([]skippedRecord, 0, len(o.Skipped)),
		Records: o.Records,
	}
	if resp.Records == nil {
		resp.Records = []*model.Record{}
	}
	for _, sk := range o.Skipped {
		resp.Skipped = append(resp.Skipped, skippedRecord{Index: sk.Index, Error: sk.Err.Error()})
	}
	if o.QueryErr != nil {
		resp.QueryError = o.QueryErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := report.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	records, c, ok := s.decode(w, r)
	if !ok {
		return
	}
	_, out := pipeline.Execute(records, c, []report.Format{f}, s.opts.Document)
	payload, ok := out[f]
	if !ok {
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, f.FileName(s.opts.BaseName)))
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// decode reads the request body. On failure it has already written a 400.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) ([]*model.Record, filter.Criteria, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	var req filterRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, filter.Criteria{}, false
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, filter.Criteria{}, false
	}
	c, err := req.Criteria.Criteria()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, filter.Criteria{}, false
	}
	records, err := source.DecodeBytes(req.Records)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, filter.Criteria{}, false
	}
	return records, c, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logging.Error("response_encode_failed", map[string]any{"error": err})
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
