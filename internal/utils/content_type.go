package utils

import (
	"mime"
	"path/filepath"
	"strings"
)

// DetectContentType maps a relative path to the MIME type its download
// should carry. Markdown is the common case and gets its own type; config
// formats read as plain text in the browser.
func DetectContentType(relPath string) string {
	switch {
	case strings.HasSuffix(relPath, ".md"):
		return "text/markdown; charset=utf-8"
	case strings.HasSuffix(relPath, ".yaml"), strings.HasSuffix(relPath, ".yml"), strings.HasSuffix(relPath, ".toml"):
		return "text/plain; charset=utf-8"
	}
	if mt := mime.TypeByExtension(filepath.Ext(relPath)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
