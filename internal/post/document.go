// Package post models a blog post document: YAML front matter over a
// markdown body. Unrecognized front-matter keys round-trip verbatim through
// every parse, merge and normalization.
package post

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Recognized front-matter field names.
const (
	FieldTitle   = "title"
	FieldAuthor  = "author"
	FieldDate    = "date"
	FieldUpdated = "updated"
	FieldDraft   = "draft"
	FieldLabels  = "labels"
)

// Document is one markdown file split into recognized fields, a passthrough
// bucket for everything else, and the body text. Pointer scalars distinguish
// an absent field from its zero value.
type Document struct {
	Title   *string
	Author  *string
	Date    *time.Time
	Updated *time.Time
	Draft   *bool
	Labels  []string
	Extra   map[string]any
	Body    string
}

// envelope is the YAML shape of the front-matter block. Field order here is
// the serialization order; Extra keys follow, sorted by the YAML encoder.
type envelope struct {
	Title   *string        `yaml:"title,omitempty"`
	Author  *string        `yaml:"author,omitempty"`
	Date    *time.Time     `yaml:"date,omitempty"`
	Updated *time.Time     `yaml:"updated,omitempty"`
	Draft   *bool          `yaml:"draft,omitempty"`
	Labels  []string       `yaml:"labels,omitempty"`
	Extra   map[string]any `yaml:",inline"`
}

// Parse splits source into front matter and body. A document without a front
// matter block parses into a Document with only Body set. A malformed block
// returns an error; callers decide how to degrade.
func Parse(source []byte) (*Document, error) {
	var env envelope
	rest, err := frontmatter.Parse(bytes.NewReader(source), &env)
	if err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}

	doc := &Document{
		Title:   env.Title,
		Author:  env.Author,
		Date:    env.Date,
		Updated: env.Updated,
		Draft:   env.Draft,
		Labels:  env.Labels,
		Extra:   env.Extra,
		Body:    strings.TrimLeft(string(rest), "\n"),
	}
	if doc.Extra == nil {
		doc.Extra = map[string]any{}
	}
	return doc, nil
}

// HasHeader reports whether any front-matter content is present.
func (d *Document) HasHeader() bool {
	return d.Title != nil || d.Author != nil || d.Date != nil ||
		d.Updated != nil || d.Draft != nil || d.Labels != nil || len(d.Extra) > 0
}

// Serialize renders the document back to bytes. A document with no header
// serializes to its body alone; otherwise the header block precedes the body,
// recognized fields first in fixed order, extra keys after.
func (d *Document) Serialize() ([]byte, error) {
	if !d.HasHeader() {
		return []byte(d.Body), nil
	}

	env := envelope{
		Title:   d.Title,
		Author:  d.Author,
		Date:    d.Date,
		Updated: d.Updated,
		Draft:   d.Draft,
		Labels:  d.Labels,
		Extra:   d.Extra,
	}
	header, err := yaml.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n")
	if d.Body != "" {
		buf.WriteString("\n")
		buf.WriteString(d.Body)
	}
	return buf.Bytes(), nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Title:   clonePtr(d.Title),
		Author:  clonePtr(d.Author),
		Date:    clonePtr(d.Date),
		Updated: clonePtr(d.Updated),
		Draft:   clonePtr(d.Draft),
		Body:    d.Body,
		Extra:   make(map[string]any, len(d.Extra)),
	}
	if d.Labels != nil {
		out.Labels = append([]string(nil), d.Labels...)
	}
	for k, v := range d.Extra {
		out.Extra[k] = v
	}
	return out
}

// ScalarFields returns the document's scalar front matter keyed by field
// name: the recognized scalars (title, author, date, draft) plus every extra
// key. Labels and the updated stamp are excluded; they merge by their own
// rules. Absent fields have no map entry.
func (d *Document) ScalarFields() map[string]any {
	fields := make(map[string]any, len(d.Extra)+4)
	if d.Title != nil {
		fields[FieldTitle] = *d.Title
	}
	if d.Author != nil {
		fields[FieldAuthor] = *d.Author
	}
	if d.Date != nil {
		fields[FieldDate] = *d.Date
	}
	if d.Draft != nil {
		fields[FieldDraft] = *d.Draft
	}
	for k, v := range d.Extra {
		fields[k] = v
	}
	return fields
}

// SetScalarField stores one scalar by name, routing recognized names to their
// typed fields and everything else to Extra. A value of the wrong type for a
// recognized field falls through to Extra untouched.
func (d *Document) SetScalarField(name string, value any) {
	switch name {
	case FieldTitle:
		if s, ok := value.(string); ok {
			d.Title = &s
			return
		}
	case FieldAuthor:
		if s, ok := value.(string); ok {
			d.Author = &s
			return
		}
	case FieldDate:
		if t, ok := value.(time.Time); ok {
			d.Date = &t
			return
		}
	case FieldDraft:
		if b, ok := value.(bool); ok {
			d.Draft = &b
			return
		}
	}
	if d.Extra == nil {
		d.Extra = map[string]any{}
	}
	d.Extra[name] = value
}

// ClearScalarField removes one scalar by name.
func (d *Document) ClearScalarField(name string) {
	switch name {
	case FieldTitle:
		d.Title = nil
	case FieldAuthor:
		d.Author = nil
	case FieldDate:
		d.Date = nil
	case FieldDraft:
		d.Draft = nil
	default:
		delete(d.Extra, name)
	}
}

// IsMarkdown reports whether relPath names a markdown document by extension.
func IsMarkdown(relPath string) bool {
	switch strings.ToLower(path.Ext(relPath)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
