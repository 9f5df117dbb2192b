// Package fingerprint suppresses redundant re-sync of clipboard content that
// has not actually changed.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/clipflow/clipflow/internal/content"
)

// Digest is a fixed-size fingerprint of one content value. Digests are
// compared, never reversed.
type Digest [sha256.Size]byte

// Of computes the fingerprint over a type-tagged canonical encoding: the kind
// tag, the payload bytes, and numeric fields in little-endian order. The tag
// guarantees that contents of different kinds never collide.
func Of(c content.Content) Digest {
	h := sha256.New()
	switch v := c.(type) {
	case content.Text:
		h.Write([]byte("text:"))
		h.Write([]byte(v.Text))
	case content.Image:
		h.Write([]byte("image:"))
		h.Write([]byte(v.Data))
		var dims [8]byte
		binary.LittleEndian.PutUint32(dims[0:4], v.Width)
		binary.LittleEndian.PutUint32(dims[4:8], v.Height)
		h.Write(dims[:])
	case content.HTML:
		h.Write([]byte("html:"))
		h.Write([]byte(v.HTML))
		h.Write([]byte(v.Text))
	}
	var d Digest
	h.Sum(d[:0])
	return d
}

// Detector remembers the fingerprint of the last accepted content. It is the
// orchestrator's single baseline for both directions: locally captured
// content consults it before sending, and remotely applied content rebases it
// so the just-applied value is not immediately re-captured and re-broadcast.
//
// Detector is not safe for concurrent use; the orchestrator serializes all
// access through its dispatch loop.
type Detector struct {
	last Digest
	seen bool
}

// ShouldSync reports whether c differs from the last accepted content, and if
// so records it as the new baseline. Calling twice with identical content
// returns true then false.
func (d *Detector) ShouldSync(c content.Content) bool {
	fp := Of(c)
	if d.seen && fp == d.last {
		return false
	}
	d.last = fp
	d.seen = true
	return true
}

// Rebase records c as the baseline without comparison. Called after applying
// remote content to the local clipboard.
func (d *Detector) Rebase(c content.Content) {
	d.last = Of(c)
	d.seen = true
}
