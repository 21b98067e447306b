// Package preview serves a rendered site tree locally.
package preview

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"nothsreports/internal/snapshot"
)

// Server is the local preview HTTP server.
type Server struct {
	root    string
	baseURL string
	store   *snapshot.Store
	log     *zap.Logger
}

// New serves the files below root. baseURL is the public address the site
// was rendered for; store may be nil.
func New(root, baseURL string, store *snapshot.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		log:     log,
	}
}

// Routes returns the router with every preview endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/sitemap.xml", s.sitemap)
	r.Get("/api/top-products", s.topProducts)
	r.Handle("/*", http.FileServer(http.Dir(s.root)))
	return r
}

// sitemap serves the rendered sitemap with its absolute URLs pointed at
// this server, so the listed pages can be followed locally.
func (s *Server) sitemap(w http.ResponseWriter, r *http.Request) {
	b, err := os.ReadFile(filepath.Join(s.root, "sitemap.xml"))
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		s.log.Error("read sitemap", zap.Error(err))
		return
	}
	if s.baseURL != "" {
		b = bytes.ReplaceAll(b, []byte(s.baseURL), []byte(requestBaseURL(r)))
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(b)
}

func (s *Server) topProducts(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "no snapshot database configured", http.StatusNotFound)
		return
	}
	runID := strings.TrimSpace(r.URL.Query().Get("run"))
	if runID == "" {
		id, err := s.store.LatestRun(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			s.log.Error("latest run", zap.Error(err))
			return
		}
		runID = id
	}
	rows, err := s.store.TopProducts(r.Context(), runID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		s.log.Error("top products", zap.String("run_id", runID), zap.Error(err))
		return
	}
	if rows == nil {
		rows = []snapshot.Row{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"run_id": runID, "products": rows})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		if i := strings.Index(proto, ","); i >= 0 {
			proto = proto[:i]
		}
		scheme = strings.TrimSpace(proto)
	} else if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if host == "" {
		host = "127.0.0.1:8080"
	}
	return scheme + "://" + host
}
