package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	app_errors "chatrelay/backend/internal/errors"
)

// Router maps a model identifier to the provider that serves it. Routing is
// explicit and total over the configured registry: identifiers with a known
// cloud prefix route to that provider, identifiers in the local-model set
// route to the local provider, and anything else fails.
type Router struct {
	gemini   Provider
	deepseek Provider
	ollama   Provider
	local    map[string]struct{}
}

// NewRouter builds the routing table from the three configured providers.
func NewRouter(gemini, deepseek, ollama Provider) *Router {
	local := make(map[string]struct{}, len(ollama.Models()))
	for _, m := range ollama.Models() {
		local[m] = struct{}{}
	}
	return &Router{gemini: gemini, deepseek: deepseek, ollama: ollama, local: local}
}

// Resolve returns the provider for a model identifier, or ErrUnsupportedModel
// when the identifier is outside the registry.
func (r *Router) Resolve(modelID string) (Provider, error) {
	switch {
	case strings.HasPrefix(modelID, "gemini"):
		return r.gemini, nil
	case strings.HasPrefix(modelID, "deepseek"):
		return r.deepseek, nil
	default:
		if _, ok := r.local[modelID]; ok {
			return r.ollama, nil
		}
		return nil, fmt.Errorf("%w: %s", app_errors.ErrUnsupportedModel, modelID)
	}
}

// modelLister is implemented by providers that can report which models are
// actually installed, as opposed to the static catalogue.
type modelLister interface {
	Installed(ctx context.Context) ([]string, error)
}

// ListAvailable aggregates model identifiers by provider name. For providers
// supporting introspection a live query is preferred; on failure the static
// list is returned instead of propagating the error.
func (r *Router) ListAvailable(ctx context.Context) map[string][]string {
	out := map[string][]string{
		r.gemini.Name():   r.gemini.Models(),
		r.deepseek.Name(): r.deepseek.Models(),
		r.ollama.Name():   r.ollama.Models(),
	}
	if lister, ok := r.ollama.(modelLister); ok {
		queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if installed, err := lister.Installed(queryCtx); err == nil {
			out[r.ollama.Name()] = installed
		} else {
			slog.Warn("Live model query failed, falling back to static list", "provider", r.ollama.Name(), "error", err)
		}
	}
	return out
}
