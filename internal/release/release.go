// Package release looks up the latest GitHub release of the desktop app and
// picks the download asset for a platform.
package release

import (
	"errors"
	"fmt"
	"strings"
)

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	ContentType        string `json:"content_type"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Release is the subset of the GitHub release payload the site needs.
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	Assets  []Asset `json:"assets"`
}

// Platform identifies a download button.
type Platform string

const (
	PlatformMac     Platform = "mac"
	PlatformWindows Platform = "windows"
)

// ErrNoAsset is returned when a release has no asset of the required type.
var ErrNoAsset = errors.New("no matching release asset")

// ErrUnknownPlatform is returned by ParsePlatform.
var ErrUnknownPlatform = errors.New("unknown platform")

// ContentType is the asset content type published for the platform.
func (p Platform) ContentType() string {
	switch p {
	case PlatformMac:
		return "application/zip"
	case PlatformWindows:
		return "application/x-msdos-program"
	}
	return ""
}

// ParsePlatform maps a URL segment to a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(s) {
	case "mac", "macos", "darwin":
		return PlatformMac, nil
	case "win", "windows":
		return PlatformWindows, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// FindAsset returns the first asset whose content type equals contentType.
func FindAsset(assets []Asset, contentType string) (Asset, bool) {
	for _, a := range assets {
		if a.ContentType == contentType {
			return a, true
		}
	}
	return Asset{}, false
}

// DownloadURL returns the download URL of the first asset matching the
// platform's content type.
func (r *Release) DownloadURL(p Platform) (string, error) {
	asset, ok := FindAsset(r.Assets, p.ContentType())
	if !ok || asset.BrowserDownloadURL == "" {
		return "", fmt.Errorf("%w: %s in %s", ErrNoAsset, p.ContentType(), r.TagName)
	}
	return asset.BrowserDownloadURL, nil
}
