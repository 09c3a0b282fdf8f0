package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DefaultLanguages are the snippet languages the site publishes.
var DefaultLanguages = []string{"ruby", "javascript"}

// ServeConfig holds runtime configuration for `synsite serve`.
type ServeConfig struct {
	Listen        string
	SiteDir       string
	ReleaseRepo   string
	APIURL        string
	GitHubToken   string
	DownloadHosts string
	FetchTimeout  time.Duration
	MaxBodySize   int64
	CacheTTL      time.Duration
	CacheMaxSize  int64
	Languages     []string
	LogLevel      slog.Level
}

// SyncConfig holds runtime configuration for `synsite sync`.
type SyncConfig struct {
	Languages   []string
	ToolsDir    string
	SiteDir     string
	Image       string
	Docker      string
	SkipPublish bool
	DryRun      bool
	LogLevel    slog.Level
}

// ServeFlags binds serve flags to fs. Environment variables provide the
// defaults; call Finish after parsing.
type ServeFlags struct {
	cfg          ServeConfig
	maxBodySize  string
	cacheMaxSize string
	languages    string
	logLevel     string
}

// BindServe registers serve flags on fs with environment variable fallback.
func BindServe(fs *pflag.FlagSet) *ServeFlags {
	f := &ServeFlags{}
	fs.StringVar(&f.cfg.Listen, "listen", envOr("SYNSITE_LISTEN", ":4000"), "Listen address")
	fs.StringVar(&f.cfg.SiteDir, "site-dir", envOr("SYNSITE_SITE_DIR", "_site"), "Directory holding the built site")
	fs.StringVar(&f.cfg.ReleaseRepo, "release-repo", envOr("SYNSITE_RELEASE_REPO", "synvert-hq/synvert-gui"), "GitHub owner/repo whose latest release backs the download buttons")
	fs.StringVar(&f.cfg.APIURL, "api-url", envOr("SYNSITE_API_URL", "https://api.github.com"), "GitHub API base URL")
	fs.StringVar(&f.cfg.GitHubToken, "github-token", envOr("GITHUB_TOKEN", ""), "Optional GitHub token for release lookups")
	fs.StringVar(&f.cfg.DownloadHosts, "download-hosts", envOr("SYNSITE_DOWNLOAD_HOSTS", "github.com"), "Comma-separated hosts download redirects may target (empty allows any)")
	fs.DurationVar(&f.cfg.FetchTimeout, "fetch-timeout", envDurationOr("SYNSITE_FETCH_TIMEOUT", 10*time.Second), "Release lookup timeout")
	fs.StringVar(&f.maxBodySize, "max-body-size", envOr("SYNSITE_MAX_BODY_SIZE", "2MB"), "Max release metadata size (e.g. 2MB)")
	fs.DurationVar(&f.cfg.CacheTTL, "cache-ttl", envDurationOr("SYNSITE_CACHE_TTL", 5*time.Minute), "Rendered page cache TTL")
	fs.StringVar(&f.cacheMaxSize, "cache-max-size", envOr("SYNSITE_CACHE_MAX_SIZE", "32MB"), "Max rendered page cache size (e.g. 32MB)")
	fs.StringVar(&f.languages, "languages", envOr("SYNSITE_LANGUAGES", strings.Join(DefaultLanguages, ",")), "Comma-separated site languages")
	fs.StringVar(&f.logLevel, "log-level", envOr("SYNSITE_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	return f
}

// Finish validates parsed serve flags and returns the final config.
func (f *ServeFlags) Finish() (*ServeConfig, error) {
	cfg := f.cfg

	var err error
	cfg.MaxBodySize, err = parseByteSize(f.maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("parse max-body-size: %w", err)
	}

	cfg.CacheMaxSize, err = parseByteSize(f.cacheMaxSize)
	if err != nil {
		return nil, fmt.Errorf("parse cache-max-size: %w", err)
	}

	cfg.Languages, err = parseLanguages(f.languages)
	if err != nil {
		return nil, err
	}

	cfg.LogLevel, err = parseLevel(f.logLevel)
	if err != nil {
		return nil, err
	}

	if strings.Count(cfg.ReleaseRepo, "/") != 1 || strings.HasPrefix(cfg.ReleaseRepo, "/") || strings.HasSuffix(cfg.ReleaseRepo, "/") {
		return nil, fmt.Errorf("invalid release-repo %q: must be owner/repo", cfg.ReleaseRepo)
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	return &cfg, nil
}

// SyncFlags binds sync flags to a flag set.
type SyncFlags struct {
	cfg       SyncConfig
	languages string
	logLevel  string
}

// BindSync registers sync flags on fs with environment variable fallback.
func BindSync(fs *pflag.FlagSet) *SyncFlags {
	f := &SyncFlags{}
	fs.StringVar(&f.languages, "languages", envOr("SYNSITE_LANGUAGES", strings.Join(DefaultLanguages, ",")), "Comma-separated snippet languages")
	fs.StringVar(&f.cfg.ToolsDir, "tools-dir", envOr("SYNSITE_TOOLS_DIR", ".."), "Directory containing the awesomecode-synvert-<language> checkouts")
	fs.StringVar(&f.cfg.SiteDir, "site-dir", envOr("SYNSITE_SOURCE_DIR", "."), "Site source directory receiving <language>/official_snippets.md")
	fs.StringVar(&f.cfg.Image, "image", envOr("SYNSITE_IMAGE", "xinminlabs/awesomecode-synvert-%s"), "Container image template; %s is replaced by the language")
	fs.StringVar(&f.cfg.Docker, "docker", envOr("SYNSITE_DOCKER", "docker"), "Container runtime binary")
	fs.BoolVar(&f.cfg.SkipPublish, "skip-publish", envBoolOr("SYNSITE_SKIP_PUBLISH", false), "Do not run publish.sh before listing snippets")
	fs.BoolVar(&f.cfg.DryRun, "dry-run", false, "Print rendered pages instead of writing them")
	fs.StringVar(&f.logLevel, "log-level", envOr("SYNSITE_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	return f
}

// Finish validates parsed sync flags and returns the final config.
func (f *SyncFlags) Finish() (*SyncConfig, error) {
	cfg := f.cfg

	var err error
	cfg.Languages, err = parseLanguages(f.languages)
	if err != nil {
		return nil, err
	}

	cfg.LogLevel, err = parseLevel(f.logLevel)
	if err != nil {
		return nil, err
	}

	if strings.Count(cfg.Image, "%s") != 1 || strings.Count(cfg.Image, "%") != 1 {
		return nil, fmt.Errorf("invalid image %q: must contain exactly one %%s and no other %% verbs", cfg.Image)
	}
	if cfg.Docker == "" {
		return nil, fmt.Errorf("docker binary must not be empty")
	}

	return &cfg, nil
}

// LoadDotEnv loads SYNSITE_* and GITHUB_TOKEN defaults from a dotenv file.
// Variables already set in the environment win. A missing file is not an
// error. Call it before binding flags.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func parseLanguages(s string) ([]string, error) {
	var langs []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		lang := strings.TrimSpace(part)
		if lang == "" || seen[lang] {
			continue
		}
		if strings.ContainsAny(lang, `/\. ?`) {
			return nil, fmt.Errorf("invalid language %q", lang)
		}
		seen[lang] = true
		langs = append(langs, lang)
	}
	if len(langs) == 0 {
		return nil, fmt.Errorf("no languages configured")
	}
	return langs, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log-level %q: %w", s, err)
	}
	return level, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		return v == "1" || v == "true" || v == "yes"
	}
	return fallback
}

// parseByteSize parses a human-readable byte size like "100MB", "5KB", "1GB".
func parseByteSize(s string) (int64, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("empty size string")
	}

	i := 0
	for i < len(s) && ((s[i] >= '0' && s[i] <= '9') || s[i] == '.') {
		i++
	}

	numStr := s[:i]
	unit := s[i:]

	var num float64
	if _, err := fmt.Sscanf(numStr, "%f", &num); err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	var multiplier int64
	switch unit {
	case "", "B":
		multiplier = 1
	case "KB", "kb":
		multiplier = 1024
	case "MB", "mb":
		multiplier = 1024 * 1024
	case "GB", "gb":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown size unit %q in %q", unit, s)
	}

	return int64(num * float64(multiplier)), nil
}
