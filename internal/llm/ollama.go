package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ollamaTimeout is the deadline for the local-inference provider. Local
// models are slow to first token, so it is longer than the remote deadlines.
const ollamaTimeout = 180 * time.Second

type ollamaProvider struct {
	client *http.Client
	url    string
	models []string
}

// NewOllamaProvider creates an adapter for a local Ollama instance. It is the
// only vision-capable provider in the gateway.
func NewOllamaProvider(url string) Provider {
	return &ollamaProvider{
		client: &http.Client{Timeout: ollamaTimeout},
		url:    url,
		models: []string{
			"llama3.2",
			"llama3.2:1b",
			"llama3.2:3b",
			"mistral",
			"qwen2.5",
			"qwen3-vl:8b",
			"phi3",
		},
	}
}

func (p *ollamaProvider) Name() string         { return "ollama" }
func (p *ollamaProvider) SupportsVision() bool { return true }
func (p *ollamaProvider) Models() []string     { return p.models }

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict"`
	} `json:"options"`
}

// buildRequest splits each turn into a text component and an optional images
// component. Ollama accepts images only on the last message, so images from
// any earlier turn are not sent.
func (p *ollamaProvider) buildRequest(req *Request, stream bool) *ollamaChatRequest {
	msgs := make([]ollamaMessage, len(req.Turns))
	for i, t := range req.Turns {
		msgs[i] = ollamaMessage{Role: t.Role, Content: t.Content.FlatText()}
		if i == len(req.Turns)-1 {
			for _, img := range t.Content.Images() {
				msgs[i].Images = append(msgs[i].Images, img.Data)
			}
		}
	}
	out := &ollamaChatRequest{Model: req.Model, Messages: msgs, Stream: stream}
	out.Options.Temperature = req.temperature()
	out.Options.NumPredict = req.maxTokens()
	return out
}

func (p *ollamaProvider) post(ctx context.Context, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/api/chat", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, wrapTransportErr(p.Name(), err)
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &UpstreamHTTPError{Status: resp.StatusCode, Body: string(bodyBytes)}
	}
	return resp, nil
}

func (p *ollamaProvider) Complete(ctx context.Context, req *Request) (string, error) {
	resp, err := p.post(ctx, p.buildRequest(req, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ollama: %w: %s", ErrUpstreamProtocol, err)
	}
	return result.Message.Content, nil
}

// Stream reads newline-delimited JSON objects. A `done:true` field ends the
// stream; message.content is the fragment.
func (p *ollamaProvider) Stream(ctx context.Context, req *Request, ch chan<- StreamChunk) error {
	defer close(ch)

	resp, err := p.post(ctx, p.buildRequest(req, true))
	if err != nil {
		ch <- StreamChunk{Error: err.Error()}
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var chunk struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Done bool `json:"done"`
		}
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Done {
			ch <- StreamChunk{Done: true}
			return nil
		}
		if chunk.Message.Content != "" {
			select {
			case ch <- StreamChunk{Content: chunk.Message.Content}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		wrapped := wrapTransportErr(p.Name(), err)
		ch <- StreamChunk{Error: wrapped.Error()}
		return wrapped
	}

	ch <- StreamChunk{Done: true}
	return nil
}

// Installed queries the local instance for the models it actually has pulled.
func (p *ollamaProvider) Installed(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, wrapTransportErr(p.Name(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamHTTPError{Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama: %w: %s", ErrUpstreamProtocol, err)
	}
	names := make([]string, 0, len(result.Models))
	for _, m := range result.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
