package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// deepseekTimeout is the deadline for the OpenAI-compatible remote provider.
const deepseekTimeout = 120 * time.Second

type deepseekProvider struct {
	client *http.Client
	url    string
	apiKey string
	models []string
}

// NewDeepSeekProvider creates an adapter for an OpenAI-compatible chat
// completions endpoint. The API key is optional; when set it is sent as a
// Bearer credential.
func NewDeepSeekProvider(url, apiKey string) Provider {
	return &deepseekProvider{
		client: &http.Client{Timeout: deepseekTimeout},
		url:    url,
		apiKey: apiKey,
		models: []string{"deepseek-v2:16b"},
	}
}

func (p *deepseekProvider) Name() string         { return "deepseek" }
func (p *deepseekProvider) SupportsVision() bool { return false }
func (p *deepseekProvider) Models() []string     { return p.models }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
	Stream      bool            `json:"stream"`
}

// Turns pass through unchanged as {role, content} pairs; multi-part content
// is flattened to its text because this provider accepts strings only.
func (p *deepseekProvider) buildRequest(req *Request, stream bool) *openAIRequest {
	msgs := make([]openAIMessage, len(req.Turns))
	for i, t := range req.Turns {
		msgs[i] = openAIMessage{Role: t.Role, Content: t.Content.FlatText()}
	}
	return &openAIRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.temperature(),
		MaxTokens:   req.maxTokens(),
		Stream:      stream,
	}
}

func (p *deepseekProvider) post(ctx context.Context, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/v1/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
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

func (p *deepseekProvider) Complete(ctx context.Context, req *Request) (string, error) {
	resp, err := p.post(ctx, p.buildRequest(req, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("deepseek: %w: %s", ErrUpstreamProtocol, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("deepseek: %w: empty choices", ErrUpstreamProtocol)
	}
	return result.Choices[0].Message.Content, nil
}

// Stream reads newline-delimited `data: <json>` records terminated by a
// literal [DONE] sentinel. Each record's choices[0].delta.content is the
// fragment; absent or empty deltas are skipped, not forwarded.
func (p *deepseekProvider) Stream(ctx context.Context, req *Request, ch chan<- StreamChunk) error {
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
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			ch <- StreamChunk{Done: true}
			return nil
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			select {
			case ch <- StreamChunk{Content: chunk.Choices[0].Delta.Content}:
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

	// Stream closed without a [DONE] sentinel; treat closure as completion.
	ch <- StreamChunk{Done: true}
	return nil
}
