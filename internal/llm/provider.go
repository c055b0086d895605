package llm

import "context"

// Defaults applied when a request leaves temperature or max tokens unset.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2048
)

// Request is the provider-agnostic shape of one generation call.
type Request struct {
	Model       string
	Turns       []Turn
	Temperature float64
	MaxTokens   int
}

// StreamChunk is a single fragment of a streaming response. Exactly one
// terminal chunk is sent per stream: either Done (clean end) or Error.
type StreamChunk struct {
	Content string
	Done    bool
	Error   string
}

// Provider is the uniform wrapper over one upstream inference backend.
// Implementations hide provider-specific request/response shapes and auth.
type Provider interface {
	// Name returns the provider identifier used in logs and model listings.
	Name() string

	// Complete sends the turns and returns the whole response text.
	Complete(ctx context.Context, req *Request) (string, error)

	// Stream sends the turns and delivers incremental text fragments on ch.
	// Each fragment is the delta only, never cumulative. The implementation
	// closes ch when the stream ends, after sending a terminal Done or Error
	// chunk. The sequence is finite and not restartable.
	Stream(ctx context.Context, req *Request, ch chan<- StreamChunk) error

	// SupportsVision reports whether the provider accepts image parts.
	SupportsVision() bool

	// Models returns the static list of model identifiers this provider serves.
	Models() []string
}

func (r *Request) temperature() float64 {
	if r.Temperature == 0 {
		return DefaultTemperature
	}
	return r.Temperature
}

func (r *Request) maxTokens() int {
	if r.MaxTokens == 0 {
		return DefaultMaxTokens
	}
	return r.MaxTokens
}
