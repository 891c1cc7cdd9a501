// Package storage defines the content file-system abstraction.
package storage

import "github.com/starford/folio/internal/models"

// Provider is the read side of the content tree.
type Provider interface {
	// List returns every content file under dir (relative to the root), in walk order.
	List(dir string) ([]models.ContentFile, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Root returns the absolute content root.
	Root() string
}

// Writer persists generated artifacts such as feeds and JSON exports.
type Writer interface {
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
}
