// Package content defines the clipboard payloads that clipflow synchronizes
// and the envelope that carries them on the wire.
//
// Content is a closed union of three variants — plain text, a transport-encoded
// image, and HTML with a mandatory plain-text fallback. The JSON form carries
// an explicit "kind" discriminant so that receivers never guess at the shape.
package content

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the Content variants on the wire.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindHTML  Kind = "html"
)

// Content is the closed set of synchronizable clipboard payloads.
// The only implementations are Text, Image, and HTML.
type Content interface {
	Kind() Kind
	// Summary returns a short human-readable description for logging.
	Summary() string
}

// Text is a plain UTF-8 string payload.
type Text struct {
	Text string
}

func (t Text) Kind() Kind { return KindText }

func (t Text) Summary() string { return fmt.Sprintf("text (%d bytes)", len(t.Text)) }

// Image is a transport-encoded image: Data holds base64-encoded PNG bytes
// that decode to exactly Width×Height pixels.
type Image struct {
	Data   string
	Width  uint32
	Height uint32
}

func (i Image) Kind() Kind { return KindImage }

func (i Image) Summary() string { return fmt.Sprintf("image (%dx%d)", i.Width, i.Height) }

// HTML is rich markup plus a mandatory plain-text fallback for backends
// that cannot write HTML natively.
type HTML struct {
	HTML string
	Text string
}

func (h HTML) Kind() Kind { return KindHTML }

func (h HTML) Summary() string { return fmt.Sprintf("html (%d bytes)", len(h.HTML)) }

// wireContent is the flattened JSON shape shared by all three kinds.
type wireContent struct {
	Kind   Kind   `json:"kind"`
	Text   string `json:"text,omitempty"`
	Data   string `json:"data,omitempty"`
	Width  uint32 `json:"width,omitempty"`
	Height uint32 `json:"height,omitempty"`
	HTML   string `json:"html,omitempty"`
}

// MarshalContent serializes c with its kind discriminant.
func MarshalContent(c Content) ([]byte, error) {
	var w wireContent
	switch v := c.(type) {
	case Text:
		w = wireContent{Kind: KindText, Text: v.Text}
	case Image:
		w = wireContent{Kind: KindImage, Data: v.Data, Width: v.Width, Height: v.Height}
	case HTML:
		w = wireContent{Kind: KindHTML, HTML: v.HTML, Text: v.Text}
	default:
		return nil, fmt.Errorf("content: unknown kind %T", c)
	}
	return json.Marshal(w)
}

// UnmarshalContent deserializes one content value, rejecting unknown kinds.
func UnmarshalContent(b []byte) (Content, error) {
	var w wireContent
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}
	switch w.Kind {
	case KindText:
		return Text{Text: w.Text}, nil
	case KindImage:
		return Image{Data: w.Data, Width: w.Width, Height: w.Height}, nil
	case KindHTML:
		return HTML{HTML: w.HTML, Text: w.Text}, nil
	default:
		return nil, fmt.Errorf("content: unknown kind %q", w.Kind)
	}
}
