// Package server exposes workbook conversion over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kastelo.dev/xlsx2json"
	"kastelo.dev/xlsx2json/excel"
)

const DefaultMaxUpload = 64 << 20

type Server struct {
	log       *slog.Logger
	parser    *xlsx2json.Parser
	maxUpload int64
}

func New(log *slog.Logger, maxUpload int64) *Server {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &Server{
		log:       log,
		parser:    xlsx2json.NewParser(log, excel.Open),
		maxUpload: maxUpload,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Post("/convert", s.convert)
	return r
}

// convert reads a workbook from the request body and answers with its
// sheet records. The file name recorded in them comes from the name query
// parameter.
func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.URL.Query().Get("name"))
	if name == "." || name == "/" {
		name = "upload" + xlsx2json.DefaultExtension
	}

	wb, err := excel.OpenReader(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		s.log.Warn("can't open uploaded workbook", "file", name, "error", err)
		http.Error(w, "request body is not a readable workbook", http.StatusBadRequest)
		return
	}

	recs := []*xlsx2json.SheetRecord{}
	sink := xlsx2json.SinkFunc(func(_ context.Context, rec *xlsx2json.SheetRecord) error {
		recs = append(recs, rec)
		return nil
	})
	st := s.parser.ParseWorkbook(r.Context(), name, wb, sink)
	s.log.Info("parsed upload", "file", name, "sheets", st.Sheets, "emitted", st.Emitted, "failed", st.Failed)

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(recs); err != nil {
		s.log.Error("can't write response", "error", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		t0 := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(t0),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
