// Package server exposes the document assembler over HTTP.
//
// Routes:
//
//	POST /render        render one request, returns the written document
//	POST /gerar-imagem/ same as /render, kept for the older batch senders
//	GET  /templates     list template identifiers
//	GET  /fonts         list fonts in the font directory
//	GET  /healthz       liveness probe
//
// Errors are returned as {"code": "...", "message": "..."} with a status
// derived from the error code; internal error details are never exposed.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/imprint/pkg/buildinfo"
	"github.com/matzehuels/imprint/pkg/errors"
	"github.com/matzehuels/imprint/pkg/pipeline"
	"github.com/matzehuels/imprint/pkg/request"
)

// MaxBodyBytes bounds the size of a render request body.
const MaxBodyBytes = 1 << 20

// LegacyRenderPath is the render route used by the older batch senders.
const LegacyRenderPath = "/gerar-imagem/"

// Server routes HTTP requests to an assembler.
type Server struct {
	asm    *pipeline.Assembler
	logger *log.Logger
	router chi.Router
}

// New builds a server around asm. A nil logger discards output.
func New(asm *pipeline.Assembler, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{asm: asm, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Post("/render", s.handleRender)
	r.Post(LegacyRenderPath, s.handleRender)
	r.Get("/templates", s.handleTemplates)
	r.Get("/fonts", s.handleFonts)
	r.Get("/healthz", s.handleHealth)
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down,
// letting in-flight renders finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidRequest, err, "request body too large or unreadable"))
		return
	}
	req, err := request.Decode(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.ID == "" && req.Output == "" {
		req.ID = uuid.NewString()
	}

	res, err := s.asm.Assemble(r.Context(), req)
	if err != nil {
		s.logger.Error("render failed", "request", req.Label(), "code", errors.CodeOf(err), "err", err,
			"request_id", middleware.GetReqID(r.Context()))
		s.writeError(w, err)
		return
	}
	s.logger.Info("rendered", "request", req.Label(), "output", res.Output, "duration", res.Duration)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"templates": nonNil(s.asm.Registry.IDs())})
}

func (s *Server) handleFonts(w http.ResponseWriter, _ *http.Request) {
	var names []string
	if s.asm.Fonts != nil {
		names = s.asm.Fonts.Names()
	}
	writeJSON(w, http.StatusOK, map[string][]string{"fonts": nonNil(names)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   buildinfo.Version,
		"templates": s.asm.Registry.Len(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	writeJSON(w, errors.HTTPStatus(code), errorBody{Code: code, Message: errors.UserMessage(err)})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http", "method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
