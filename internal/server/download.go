package server

import (
	"net/http"
	"time"

	"github.com/synvert-hq/synsite/internal/logging"
	"github.com/synvert-hq/synsite/internal/nav"
	"github.com/synvert-hq/synsite/internal/release"
)

// handleDownload redirects to the latest release asset for the platform.
// Lookup failures answer 204 so the browser stays on the current page.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	platform, err := release.ParsePlatform(r.PathValue("platform"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "no-store")

	start := time.Now()
	rel, err := s.releases.Latest(r.Context(), s.cfg.ReleaseRepo)
	s.metrics.releaseLookup.Observe(time.Since(start).Seconds())
	if err != nil {
		s.countDownload(platform, outcomeLookupFailed)
		logger.Error("latest release lookup failed",
			"repo", s.cfg.ReleaseRepo,
			"platform", platform,
			"error", err,
		)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	target, err := rel.DownloadURL(platform)
	if err != nil {
		logger.Warn("no release asset for platform",
			"repo", s.cfg.ReleaseRepo,
			"tag", rel.TagName,
			"platform", platform,
			"content_type", platform.ContentType(),
		)
		s.countDownload(platform, outcomeNoAsset)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if !s.downloads.AllowsURL(target) {
		logger.Warn("release asset host not allowed",
			"repo", s.cfg.ReleaseRepo,
			"tag", rel.TagName,
			"url", target,
		)
		s.countDownload(platform, outcomeHostDenied)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.countDownload(platform, outcomeRedirected)
	logger.Debug("redirecting to release asset", "tag", rel.TagName, "platform", platform, "url", target)
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) countDownload(p release.Platform, outcome string) {
	s.metrics.downloads.WithLabelValues(string(p), outcome).Inc()
}

// handleLanguage navigates to the home page of the selected language.
func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	target, err := nav.LanguageHome(r.URL.Query().Get("language"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
