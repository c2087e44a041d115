package post

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Normalize backfills missing recognized fields and stamps the edit time.
// Present fields are never overwritten, with one exception: Updated is set to
// now on every call, new or not. Returns one warning per field it filled.
func Normalize(doc *Document, relPath string, isNew bool, defaultAuthor string, now time.Time) []string {
	var warnings []string

	if doc.Title == nil {
		title := deriveTitle(doc.Body, relPath)
		doc.Title = &title
		warnings = append(warnings, fmt.Sprintf("title missing, derived %q", title))
	}

	if doc.Author == nil && defaultAuthor != "" {
		author := defaultAuthor
		doc.Author = &author
		warnings = append(warnings, fmt.Sprintf("author missing, defaulted to %q", author))
	}

	if isNew {
		if doc.Date == nil {
			created := now
			doc.Date = &created
			warnings = append(warnings, "date missing, stamped with current time")
		}
		if doc.Draft == nil {
			draft := false
			doc.Draft = &draft
			warnings = append(warnings, "draft missing, defaulted to false")
		}
	}

	stamp := now
	doc.Updated = &stamp

	return warnings
}

// deriveTitle takes the first markdown heading, falling back to the file name
// with separators spaced out.
func deriveTitle(body, relPath string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "# "); ok {
			if t := strings.TrimSpace(after); t != "" {
				return t
			}
		}
	}

	stem := strings.TrimSuffix(path.Base(relPath), path.Ext(relPath))
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return strings.TrimSpace(stem)
}
