// Package fileurl maps stored file references to public download URLs.
package fileurl

import (
	"net/url"
	"strings"
)

// DefaultStripPrefixes are the storage mount prefixes removed from file paths.
var DefaultStripPrefixes = []string{"/mnt/pdf/done/", "/mnt/pdf/done", "pdf/done/", "./pdf/done/"}

// Resolver turns a file_path/file_name pair into a public URL.
type Resolver struct {
	publicURL string
	prefixes  []string
}

// NewResolver creates a Resolver rooted at publicURL. A nil prefixes slice
// selects DefaultStripPrefixes.
func NewResolver(publicURL string, prefixes []string) *Resolver {
	if prefixes == nil {
		prefixes = DefaultStripPrefixes
	}
	return &Resolver{
		publicURL: strings.TrimRight(publicURL, "/"),
		prefixes:  prefixes,
	}
}

// Resolve returns the public URL for a stored file, or "" when neither the
// path nor the name leaves anything to link to. Absolute http(s) paths are
// returned unchanged.
func (r *Resolver) Resolve(filePath, fileName string) string {
	if filePath == "" {
		return ""
	}
	if strings.HasPrefix(filePath, "http://") || strings.HasPrefix(filePath, "https://") {
		return filePath
	}

	p := filePath
	for _, prefix := range r.prefixes {
		if strings.HasPrefix(p, prefix) {
			p = strings.TrimPrefix(p, prefix)
			break
		}
	}
	p = strings.Trim(p, "/")
	if p == "" {
		p = fileName
	}
	if p == "" {
		return ""
	}

	return r.publicURL + "/" + escapePath(p)
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
