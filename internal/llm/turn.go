package llm

// Turn is one message in a conversation, attributed to user, assistant, or
// system. Content is a tagged union: plain text for most turns, an ordered
// sequence of parts when images are attached. Each adapter translates a Turn
// into whatever shape its upstream provider accepts.
type Turn struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// Content holds either plain text or structured parts. Parts takes precedence
// when non-empty.
type Content struct {
	Text  string `json:"text,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// Part is one element of multi-part content.
type Part struct {
	Type      string `json:"type"` // "text" or "image"
	Text      string `json:"text,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"` // base64-encoded image bytes
}

const (
	PartText  = "text"
	PartImage = "image"
)

// TextContent wraps a plain string as turn content.
func TextContent(s string) Content {
	return Content{Text: s}
}

// Multipart reports whether the content carries structured parts.
func (c Content) Multipart() bool {
	return len(c.Parts) > 0
}

// FlatText returns the textual portion of the content: the plain text, or the
// concatenation of all text parts for multi-part content.
func (c Content) FlatText() string {
	if !c.Multipart() {
		return c.Text
	}
	var out string
	for _, p := range c.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// Images returns the image parts of the content in order, or nil for plain
// text content.
func (c Content) Images() []Part {
	var imgs []Part
	for _, p := range c.Parts {
		if p.Type == PartImage {
			imgs = append(imgs, p)
		}
	}
	return imgs
}
