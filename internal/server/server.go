package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/synvert-hq/synsite/internal/cache"
	"github.com/synvert-hq/synsite/internal/config"
	"github.com/synvert-hq/synsite/internal/layout"
	"github.com/synvert-hq/synsite/internal/logging"
	"github.com/synvert-hq/synsite/internal/release"
	"github.com/synvert-hq/synsite/internal/render"
)

// assetPrefix is where embedded assets are mounted.
const assetPrefix = "/_synsite/"

// ReleaseSource looks up the latest release of a repository.
type ReleaseSource interface {
	Latest(ctx context.Context, repo string) (*release.Release, error)
}

// Server serves the built site with navigation highlighting, language
// navigation and download redirects.
type Server struct {
	cfg       *config.ServeConfig
	version   string
	site      fs.FS
	assets    fs.FS
	releases  ReleaseSource
	downloads *Allowlist
	mdRender  *render.MarkdownRenderer
	layout    *layout.Renderer
	pages     *cache.Cache
	metrics   *metrics
	logger    *slog.Logger
	mux       *http.ServeMux
}

// Option customizes a Server.
type Option func(*Server)

// WithReleaseSource replaces the GitHub release client.
func WithReleaseSource(src ReleaseSource) Option {
	return func(s *Server) { s.releases = src }
}

// WithSiteFS serves the site from fsys instead of cfg.SiteDir.
func WithSiteFS(fsys fs.FS) Option {
	return func(s *Server) { s.site = fsys }
}

// WithLogger sets the logger used for request logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a server with all dependencies.
func New(cfg *config.ServeConfig, version string, assets fs.FS, opts ...Option) (*Server, error) {
	tmpl, err := layout.NewRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		version:   version,
		site:      os.DirFS(cfg.SiteDir),
		assets:    assets,
		downloads: ParseAllowlist(cfg.DownloadHosts),
		mdRender:  render.NewMarkdownRenderer(),
		layout:    tmpl,
		pages:     cache.New(cfg.CacheTTL, cfg.CacheMaxSize),
		logger:    slog.Default(),
		mux:       http.NewServeMux(),
	}
	s.metrics = newMetrics(s.pages)
	for _, opt := range opts {
		opt(s)
	}

	if s.releases == nil {
		clientOpts := []release.Option{release.WithUserAgent("synsite/" + version)}
		if cfg.GitHubToken != "" {
			clientOpts = append(clientOpts, release.WithToken(cfg.GitHubToken))
		}
		s.releases = release.NewClient(cfg.APIURL, cfg.FetchTimeout, cfg.MaxBodySize, clientOpts...)
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET "+assetPrefix+"metrics", s.metrics.handler())
	s.mux.HandleFunc("GET "+assetPrefix+"{path...}", s.handleAsset)
	s.mux.HandleFunc("GET /download/{platform}", s.handleDownload)
	s.mux.HandleFunc("GET /languages", s.handleLanguage)
	s.mux.HandleFunc("GET /{path...}", s.handleSite)
}

// Handler returns the server's HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.metrics.instrument(h)
	h = s.securityHeaders(h)
	h = logging.Middleware(s.logger)(h)
	return h
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(200)
	w.Write([]byte("OK"))
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	assetPath := r.PathValue("path")
	data, err := fs.ReadFile(s.assets, assetPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch path.Ext(assetPath) {
	case ".js":
		w.Header().Set("Content-Type", "application/javascript")
	case ".css":
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Synsite-Version", s.version)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logging.FromContext(r.Context()).Error(msg, "error", err)
	http.Error(w, fmt.Sprintf("%d %s", http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)), http.StatusInternalServerError)
}

func hasExt(name string, exts ...string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
