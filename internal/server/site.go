package server

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/synvert-hq/synsite/internal/cache"
	"github.com/synvert-hq/synsite/internal/layout"
	"github.com/synvert-hq/synsite/internal/logging"
	"github.com/synvert-hq/synsite/internal/nav"
	"github.com/synvert-hq/synsite/internal/sanitize"
)

var (
	htmlExts     = []string{".html", ".htm"}
	markdownExts = []string{".md", ".markdown"}
)

// handleSite serves a file from the site directory. HTML pages get their
// navigation highlighted for the request path, markdown sources are
// previewed inside the site layout and everything else is served as is.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	name := sitePath(r.PathValue("path"))

	info, err := fs.Stat(s.site, name)
	if err == nil && info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, r.URL.EscapedPath()+"/", http.StatusMovedPermanently)
			return
		}
		name, info, err = s.resolve(path.Join(name, "index"))
	} else if err != nil {
		name, info, err = s.resolve(name)
	}
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.serverError(w, r, "stat site file failed", err)
			return
		}
		s.notFound(w, r)
		return
	}

	s.serveFile(w, r, name, info, http.StatusOK)
}

// resolve finds base+".html" or base+".md", the way the site generator maps
// pretty URLs onto files.
func (s *Server) resolve(base string) (string, fs.FileInfo, error) {
	for _, ext := range []string{".html", ".md"} {
		name := base + ext
		if base == "." {
			name = "index" + ext
		}
		info, err := fs.Stat(s.site, name)
		if err == nil && !info.IsDir() {
			return name, info, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", nil, err
		}
	}
	return "", nil, fs.ErrNotExist
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, name string, info fs.FileInfo, status int) {
	data, err := fs.ReadFile(s.site, name)
	if err != nil {
		s.serverError(w, r, "read site file failed", err)
		return
	}

	switch {
	case hasExt(name, htmlExts...):
		s.writeHTML(w, r, s.highlight(r, data), status)
	case hasExt(name, markdownExts...):
		s.servePreview(w, r, name, info.ModTime(), data, status)
	default:
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write(data)
			return
		}
		http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(data))
	}
}

// servePreview renders a markdown source page, reusing the cached render
// while the source file is unchanged.
func (s *Server) servePreview(w http.ResponseWriter, r *http.Request, name string, modTime time.Time, source []byte, status int) {
	start := time.Now()

	// The layout depends on the request path through the language.
	key := name + " " + r.URL.Path
	entry, cacheStatus := s.pages.Get(key, modTime)
	s.metrics.previews.WithLabelValues(string(cacheStatus)).Inc()
	if entry == nil {
		page, err := s.renderPreview(r, source)
		if err != nil {
			s.serverError(w, r, "render preview failed", err)
			return
		}
		entry = &cache.Entry{HTML: page, ModTime: modTime, Size: int64(len(page))}
		s.pages.Put(key, *entry)
	}

	logging.FromContext(r.Context()).Debug("preview",
		"file", name,
		"cache", cacheStatus,
		"render_ms", time.Since(start).Milliseconds(),
	)

	w.Header().Set("X-Synsite-Cache", string(cacheStatus))
	w.Header().Set("X-Synsite-Render-Ms", fmt.Sprintf("%d", time.Since(start).Milliseconds()))
	s.writeHTML(w, r, s.highlight(r, entry.HTML), status)
}

func (s *Server) renderPreview(r *http.Request, source []byte) ([]byte, error) {
	body, meta, err := s.mdRender.Render(source)
	if err != nil {
		return nil, err
	}

	logging.FromContext(r.Context()).Debug("rendered markdown",
		"title", meta.Title,
		"headings", len(meta.Headings),
		"code_blocks", meta.CodeBlockCount,
		"details", meta.DetailsCount,
	)

	lang := meta.FrontMatter.Layout
	if !slices.Contains(s.cfg.Languages, lang) {
		lang = nav.LanguageFromPath(r.URL.Path)
		if !slices.Contains(s.cfg.Languages, lang) {
			lang = ""
		}
	}

	return s.layout.RenderPage(layout.PageData{
		Version:   s.version,
		Title:     meta.Title,
		Language:  lang,
		Languages: s.cfg.Languages,
		Content:   htmltemplate.HTML(sanitize.HTML(body)),
		Headings:  meta.Headings,
		CSSPath:   assetPrefix + "app.css",
	})
}

// highlight marks the navigation for the request path. Anchors carry
// percent-encoded hrefs, so the escaped form of the path is matched. A page
// that cannot be parsed is served unchanged.
func (s *Server) highlight(r *http.Request, page []byte) []byte {
	out, err := nav.HighlightBytes(page, r.URL.EscapedPath())
	if err != nil {
		logging.FromContext(r.Context()).Warn("navigation highlight failed", "error", err)
	}
	return out
}

func (s *Server) writeHTML(w http.ResponseWriter, r *http.Request, page []byte, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		w.Write(page)
	}
}

// notFound serves the site's 404 page when it has one.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{"404.html", "404.md"} {
		info, err := fs.Stat(s.site, name)
		if err == nil && !info.IsDir() {
			s.serveFile(w, r, name, info, http.StatusNotFound)
			return
		}
	}
	http.NotFound(w, r)
}

// sitePath maps a request path onto a slash-separated fs.FS name. The result
// never escapes the site root.
func sitePath(p string) string {
	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	if name == "" {
		return "."
	}
	return name
}
