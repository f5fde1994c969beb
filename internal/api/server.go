package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/dunamismax/imagevault/internal/domain"
	"github.com/dunamismax/imagevault/internal/imaging"
	"github.com/dunamismax/imagevault/internal/service"
	"github.com/dunamismax/imagevault/internal/store"
)

const (
	defaultMaxUploadBytes = 32 << 20
	defaultIdentityHeader = "X-User-ID"
)

// imageService is the slice of the core the HTTP boundary depends on.
type imageService interface {
	Import(ctx context.Context, req domain.UploadRequest) (domain.ImportResult, error)
	GetBytes(ctx context.Context, imageID string) ([]byte, domain.Format, error)
	GetInfo(ctx context.Context, imageID string) (domain.ImageInfo, error)
}

type Options struct {
	RateLimiter    RateLimiter
	Tracer         trace.Tracer
	IdentityHeader string
	MaxUploadBytes int64
}

type Server struct {
	logger         zerolog.Logger
	images         imageService
	metrics        *metrics
	tracer         trace.Tracer
	rateLimiter    RateLimiter
	identityHeader string
	maxUploadBytes int64
	mux            *http.ServeMux
}

func NewServer(logger zerolog.Logger, images imageService, opts Options) *Server {
	identityHeader := strings.TrimSpace(opts.IdentityHeader)
	if identityHeader == "" {
		identityHeader = defaultIdentityHeader
	}
	maxUploadBytes := opts.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		logger:         logger,
		images:         images,
		metrics:        newMetrics(),
		tracer:         opts.Tracer,
		rateLimiter:    opts.RateLimiter,
		identityHeader: identityHeader,
		maxUploadBytes: maxUploadBytes,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
	s.mux.HandleFunc("POST /v1/images", s.handleUpload)
	s.mux.HandleFunc("GET /v1/images/{id}", s.handleGetImage)
	s.mux.HandleFunc("GET /v1/images/{id}/info", s.handleGetInfo)
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.withRateLimit(h)
	h = s.withTracing(h)
	return s.metrics.withHTTPMetrics(h)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	req, err := parseUploadForm(r, s.identityHeader)
	if err != nil {
		s.metrics.ingestTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.images.Import(r.Context(), req)
	if err != nil {
		s.metrics.ingestTotal.WithLabelValues("rejected").Inc()
		status, kind := statusForError(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error().Err(err).Str("file_name", req.OriginalName).Msg("import failed")
		}
		writeError(w, status, kind, err.Error())
		return
	}

	s.metrics.payloadBytes.Observe(float64(len(req.RawImageBytes)))
	if result.AlreadyExists {
		s.metrics.ingestTotal.WithLabelValues("deduplicated").Inc()
	} else {
		s.metrics.ingestTotal.WithLabelValues("created").Inc()
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	imageID := r.PathValue("id")

	data, format, err := s.images.GetBytes(r.Context(), imageID)
	if err != nil {
		status, kind := statusForError(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error().Err(err).Str("image_id", imageID).Msg("image retrieval failed")
		}
		writeError(w, status, kind, err.Error())
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleGetInfo(w http.ResponseWriter, r *http.Request) {
	imageID := r.PathValue("id")

	info, err := s.images.GetInfo(r.Context(), imageID)
	if err != nil {
		status, kind := statusForError(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error().Err(err).Str("image_id", imageID).Msg("image info failed")
		}
		writeError(w, status, kind, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, info)
}

func parseUploadForm(r *http.Request, identityHeader string) (domain.UploadRequest, error) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return domain.UploadRequest{}, errors.New("request body must be multipart/form-data")
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return domain.UploadRequest{}, errors.New("form file \"image\" is required")
	}
	raw, err := readAll(file)
	if err != nil {
		return domain.UploadRequest{}, err
	}

	width, err := formInt(r, "targetWidth")
	if err != nil {
		return domain.UploadRequest{}, err
	}
	height, err := formInt(r, "targetHeight")
	if err != nil {
		return domain.UploadRequest{}, err
	}
	keepAspect, err := formBool(r, "keepAspectRatio")
	if err != nil {
		return domain.UploadRequest{}, err
	}

	return domain.UploadRequest{
		TargetWidth:     width,
		TargetHeight:    height,
		TargetFormat:    r.FormValue("targetFormat"),
		KeepAspectRatio: keepAspect,
		RawImageBytes:   raw,
		OriginalName:    header.Filename,
		CallerIdentity:  strings.TrimSpace(r.Header.Get(identityHeader)),
	}, nil
}

func readAll(file multipart.File) ([]byte, error) {
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("read uploaded file")
	}
	return data, nil
}

func formInt(r *http.Request, field string) (int, error) {
	value := strings.TrimSpace(r.FormValue(field))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.New(field + " must be an integer")
	}
	return parsed, nil
}

func formBool(r *http.Request, field string) (bool, error) {
	value := strings.TrimSpace(r.FormValue(field))
	if value == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.New(field + " must be a boolean")
	}
	return parsed, nil
}

// statusForError maps core error kinds onto HTTP statuses. Store conflicts
// never show up here: the pipeline resolves them internally.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidDimensions):
		return http.StatusBadRequest, "invalid_dimensions"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format"
	case errors.Is(err, domain.ErrEmptyPayload):
		return http.StatusBadRequest, "empty_payload"
	case errors.Is(err, imaging.ErrDecode):
		return http.StatusBadRequest, "decode_error"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]string{"error": kind, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
