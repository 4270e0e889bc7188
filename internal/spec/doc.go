// Package spec loads an OpenAPI 3.x document from an embedded build, a file,
// or a URL, dereferences it, and derives the content-addressed identity
// (fingerprint and spec id) everything downstream keys on.
package spec

import (
	"errors"

	"github.com/getkin/kin-openapi/openapi3"
)

// Source tells where the document text came from.
type Source string

const (
	SourceEmbedded Source = "embedded"
	SourceFile     Source = "file"
	SourceURL      Source = "url"
)

var (
	ErrNoSpec          = errors.New("no spec provided; pass --spec <url|path> or use an embedded build")
	ErrFetchFailed     = errors.New("spec fetch failed")
	ErrParseFailed     = errors.New("spec parse failed")
	ErrInvalidDocument = errors.New("not an OpenAPI 3.x document")
)

// Document is the loaded spec in both of its working forms: the typed model
// used to derive commands and a generic dereferenced tree used for the
// fingerprint and introspection output. Built once, read-only afterwards.
type Document struct {
	// Doc is the typed model with $refs resolved in place (shared handles).
	Doc *openapi3.T
	// Raw is the structurally dereferenced generic document.
	Raw map[string]any

	Source   Source
	Location string // file path or URL; empty for embedded

	Fingerprint string // hex SHA-256 of the canonical serialization
	ID          string // kebab-cased info.title, else fingerprint prefix
}

// Title returns info.title or "".
func (d *Document) Title() string {
	if d.Doc != nil && d.Doc.Info != nil {
		return d.Doc.Info.Title
	}
	return ""
}

// InfoVersion returns info.version or "".
func (d *Document) InfoVersion() string {
	if d.Doc != nil && d.Doc.Info != nil {
		return d.Doc.Info.Version
	}
	return ""
}

// OpenAPIVersion returns the document's declared openapi version.
func (d *Document) OpenAPIVersion() string {
	if d.Doc != nil {
		return d.Doc.OpenAPI
	}
	return ""
}
