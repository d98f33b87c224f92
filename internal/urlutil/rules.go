package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// staticExtensions are file extensions that never yield page content.
// Links pointing at these are filtered out during discovery.
var staticExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true, ".bmp": true,
	".css": true, ".js": true, ".mjs": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp4": true, ".webm": true, ".mp3": true, ".wav": true,
	".zip": true, ".tar": true, ".gz": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
}

// restrictedSegments are path substrings excluded from discovery.
// Crawling authentication and account pages is never useful for content
// consolidation and may trigger session side effects on the target site.
var restrictedSegments = []string{
	"login", "signup", "register", "logout",
	"account", "profile", "admin",
}

// SameOrigin reports whether the URL shares scheme and host with base.
// Discovery only admits same-origin candidates; everything else belongs
// to a different site.
func SameOrigin(rawURL string, base *url.URL) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, base.Scheme) && strings.EqualFold(u.Host, base.Host)
}

// IsStaticAsset reports whether a URL points at a static asset
// (image, stylesheet, script, archive, and so on).
func IsStaticAsset(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	return staticExtensions[ext]
}

// IsRestrictedPath reports whether a URL path contains a restricted
// segment such as login or admin.
func IsRestrictedPath(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	lower := strings.ToLower(u.Path)
	for _, seg := range restrictedSegments {
		if strings.Contains(lower, seg) {
			return true
		}
	}
	return false
}
