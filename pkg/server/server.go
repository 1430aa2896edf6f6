// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the archive rewrite over HTTP.
package server

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/clusterrc/pkg/archive"
	"github.com/walteh/clusterrc/pkg/config"
	"github.com/walteh/clusterrc/pkg/operation"
	"github.com/walteh/clusterrc/pkg/status"
	"github.com/walteh/clusterrc/pkg/text"
)

const (
	FieldFile  = "file"
	FieldValue = "new_value"

	HeaderRewritten = "X-Clusterrc-Rewritten"
	HeaderFailed    = "X-Clusterrc-Failed"
	HeaderRequestID = "X-Request-Id"

	shutdownTimeout = 10 * time.Second
	formMemory      = 32 << 20
)

// Options configures a Server.
type Options struct {
	Config   *config.Config
	Registry *prometheus.Registry // A fresh registry when nil
}

// 🌐 Server handles preset archive uploads
type Server struct {
	cfg      *config.Config
	metrics  *Metrics
	gatherer prometheus.Gatherer
	runner   *operation.OperationRunner
}

// 🏭 New creates a server from a validated config
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &Server{
		cfg:      opts.Config,
		metrics:  NewMetrics(registry),
		gatherer: registry,
		// runs in the handler goroutine so scratch cleanup waits for the operation
		runner: operation.NewRunner(nil, false),
	}, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})

	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/upload", s.handleUpload)

	return mux
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return errors.Errorf("listening on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := zerolog.Ctx(ctx)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// in-flight requests finish during shutdown
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", ln.Addr().String()).Msg("serving")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Errorf("serving: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Errorf("shutting down: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// statusRecorder wraps http.ResponseWriter to capture the HTTP status code.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
		r.ResponseWriter.WriteHeader(code)
	}
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) getStatus() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// classifyStatus converts an HTTP status code to a metric result label.
func classifyStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "success"
	case code == http.StatusRequestEntityTooLarge:
		return "too_large"
	case code == http.StatusUnprocessableEntity:
		return "invalid_archive"
	case code >= 400 && code < 500:
		return "bad_request"
	default:
		return "error"
	}
}

// 📤 handleUpload handles POST /upload
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w}

	requestID := uuid.NewString()
	logger := zerolog.Ctx(r.Context()).With().Str("request_id", requestID).Logger()
	ctx := logger.WithContext(r.Context())
	rec.Header().Set(HeaderRequestID, requestID)

	s.metrics.InFlight.Inc()
	var result *operation.Result
	defer func() {
		s.metrics.InFlight.Dec()
		code := rec.getStatus()
		var report *status.Report
		if result != nil {
			report = result.Report
		}
		s.metrics.RecordUpload(classifyStatus(code), time.Since(start).Seconds(), report)
		logger.Info().Int("status", code).Dur("duration", time.Since(start)).Msg("upload handled")
	}()

	if r.Method != http.MethodPost {
		rec.Header().Set("Allow", http.MethodPost)
		http.Error(rec, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(rec, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(rec, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(rec, "bad multipart", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	values, ok := r.MultipartForm.Value[FieldValue]
	if !ok || len(values) == 0 {
		http.Error(rec, "missing "+FieldValue, http.StatusBadRequest)
		return
	}
	value := values[0]
	if err := text.ValidateValue(value); err != nil {
		http.Error(rec, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File[FieldFile]
	if len(files) == 0 {
		http.Error(rec, "missing "+FieldFile, http.StatusBadRequest)
		return
	}
	fh := files[0]

	scratch, err := operation.NewScratch(ctx, s.cfg.ScratchDir)
	if err != nil {
		logger.Error().Err(err).Msg("creating request scratch")
		http.Error(rec, "internal error", http.StatusInternalServerError)
		return
	}
	defer scratch.Close(ctx)

	uploadName := uploadFilename(fh.Filename)
	uploadPath := scratch.Path("upload", uploadName)
	size, err := saveUpload(fh, uploadPath)
	if err != nil {
		logger.Error().Err(err).Msg("saving upload")
		http.Error(rec, "upload failed", http.StatusInternalServerError)
		return
	}
	s.metrics.UploadBytes.Add(float64(size))

	opts, err := operation.OptionsFromConfig(s.cfg, value)
	if err != nil {
		http.Error(rec, "internal error", http.StatusInternalServerError)
		return
	}
	op := operation.NewArchiveOperation(opts, uploadPath, s.cfg.ScratchDir, scratch.Path("out"))
	op.Naming = archive.Fixed{Name: s.cfg.ArchiveName}
	op.MaxEntryBytes = s.cfg.MaxEntryBytes

	result, err = s.runner.Run(ctx, op)
	if err != nil {
		switch {
		case errors.Is(err, archive.ErrInvalidArchive),
			errors.Is(err, archive.ErrUnsafePath),
			errors.Is(err, archive.ErrEntryTooLarge):
			logger.Warn().Err(err).Msg("rejected archive")
			http.Error(rec, err.Error(), http.StatusUnprocessableEntity)
		case ctx.Err() != nil:
			logger.Debug().Err(err).Msg("client went away")
		default:
			logger.Error().Err(err).Msg("processing archive")
			http.Error(rec, "processing failed", http.StatusInternalServerError)
		}
		return
	}

	downloadName := filepath.Base(result.ArchivePath)
	if s.cfg.DownloadName == config.DownloadUpload {
		downloadName = uploadName
	}

	if err := s.sendArchive(rec, result, downloadName); err != nil {
		logger.Error().Err(err).Msg("sending archive")
	}
}

func (s *Server) sendArchive(w http.ResponseWriter, result *operation.Result, downloadName string) error {
	f, err := os.Open(result.ArchivePath)
	if err != nil {
		http.Error(w, "reading result failed", http.StatusInternalServerError)
		return errors.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		http.Error(w, "reading result failed", http.StatusInternalServerError)
		return errors.Errorf("stat archive: %w", err)
	}

	counts := result.Report.Counts()
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	w.Header().Set("Content-Length", strconv.FormatInt(st.Size(), 10))
	w.Header().Set(HeaderRewritten, strconv.Itoa(counts.Rewritten))
	w.Header().Set(HeaderFailed, strconv.Itoa(counts.Failed))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f); err != nil {
		return errors.Errorf("writing response: %w", err)
	}
	return nil
}

// uploadFilename keeps only the base name of a client supplied filename.
func uploadFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" || name == ".." {
		return "upload.zip"
	}
	return name
}

func saveUpload(fh *multipart.FileHeader, dst string) (int64, error) {
	src, err := fh.Open()
	if err != nil {
		return 0, errors.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, errors.Errorf("creating upload directory: %w", err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, errors.Errorf("creating upload file: %w", err)
	}
	n, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, errors.Errorf("writing upload: %w", err)
	}
	return n, nil
}
