package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/timed-content/pkg/timedcontent"
	"github.com/tendant/timed-content/pkg/timedcontent/reading"
)

// ReadingService is the part of reading.Service used by the handler
type ReadingService interface {
	Get(ctx context.Context) (reading.Contents, error)
	Generation(ctx context.Context, key string) (reading.Generation, error)
}

// ErrorResponse is the body of every failed API request
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves the timed content HTTP API
type Handler struct {
	reading   ReadingService
	staticDir string
	logger    *slog.Logger
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithStaticDir serves the home and reading pages from dir
func WithStaticDir(dir string) HandlerOption {
	return func(h *Handler) {
		h.staticDir = dir
	}
}

// WithLogger sets the logger for the handler
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a new API handler
func NewHandler(service ReadingService, opts ...HandlerOption) *Handler {
	h := &Handler{reading: service}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Routes returns the API routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.Health)
	r.Get("/reading_contents", h.ReadingContents)
	r.Get("/generations/*", h.GetGeneration)

	if h.staticDir != "" {
		r.Get("/", h.page("home.html"))
		r.Get("/home", h.page("home.html"))
		r.Get("/reading", h.page("reading.html"))
	}

	return r
}

// Health reports that the server is up
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

// ReadingContents returns a reading comprehension story
func (h *Handler) ReadingContents(w http.ResponseWriter, r *http.Request) {
	contents, err := h.reading.Get(r.Context())
	if err != nil {
		h.logger.Error("Failed to get reading contents", "err", err)
		h.internalError(w, r)
		return
	}

	render.JSON(w, r, contents)
}

// GetGeneration returns the generation record of a stored story.
// The object key is the remainder of the path.
func (h *Handler) GetGeneration(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Object key is required"})
		return
	}

	gen, err := h.reading.Generation(r.Context(), key)
	if errors.Is(err, timedcontent.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Error: "Generation not found"})
		return
	} else if err != nil {
		h.logger.Error("Failed to get generation", "key", key, "err", err)
		h.internalError(w, r)
		return
	}

	render.JSON(w, r, gen)
}

// internalError hides failure details from clients
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, ErrorResponse{Error: "Internal server error"})
}

func (h *Handler) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(h.staticDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			h.logger.Error("Failed to open page", "path", path, "err", err)
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	}
}
