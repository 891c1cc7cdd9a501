// Package checksum computes content digests used for change detection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Tree accumulates (path, checksum) pairs into a single digest. The digest
// depends on insertion order, so callers add entries in a stable order.
type Tree struct {
	h hash.Hash
	n int
}

// NewTree returns an empty Tree.
func NewTree() *Tree {
	return &Tree{h: sha256.New()}
}

// Add records one file.
func (t *Tree) Add(path, sum string) {
	t.h.Write([]byte(path))
	t.h.Write([]byte{0})
	t.h.Write([]byte(sum))
	t.h.Write([]byte{'\n'})
	t.n++
}

// Len returns the number of entries added.
func (t *Tree) Len() int {
	return t.n
}

// Sum returns the hex-encoded digest of all entries added so far.
func (t *Tree) Sum() string {
	return hex.EncodeToString(t.h.Sum(nil))
}
