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

const geminiTimeout = 120 * time.Second

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type geminiProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	models  []string
}

// NewGeminiProvider creates an adapter for the Google Generative Language API.
func NewGeminiProvider(apiKey string) Provider {
	return newGeminiProvider(geminiBaseURL, apiKey)
}

func newGeminiProvider(baseURL, apiKey string) *geminiProvider {
	return &geminiProvider{
		client:  &http.Client{Timeout: geminiTimeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		models:  []string{"gemini-1.5-flash", "gemini-1.5-pro"},
	}
}

func (p *geminiProvider) Name() string         { return "gemini" }
func (p *geminiProvider) SupportsVision() bool { return false }
func (p *geminiProvider) Models() []string     { return p.models }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

// The Gemini API labels assistant turns with the "model" role and wraps all
// content as a parts array. The system turn becomes a system_instruction.
func (p *geminiProvider) buildRequest(req *Request) *geminiRequest {
	out := &geminiRequest{Contents: make([]geminiContent, 0, len(req.Turns))}
	for _, t := range req.Turns {
		if t.Role == "system" {
			out.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: t.Content.FlatText()}}}
			continue
		}
		role := "user"
		if t.Role == "assistant" {
			role = "model"
		}
		out.Contents = append(out.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: t.Content.FlatText()}},
		})
	}
	out.GenerationConfig.Temperature = req.temperature()
	out.GenerationConfig.MaxOutputTokens = req.maxTokens()
	return out
}

func (p *geminiProvider) post(ctx context.Context, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
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

func (p *geminiProvider) Complete(ctx context.Context, req *Request) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, req.Model, p.apiKey)
	resp, err := p.post(ctx, url, p.buildRequest(req))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("gemini: %w: %s", ErrUpstreamProtocol, err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: %w: empty candidates", ErrUpstreamProtocol)
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// Stream uses the SSE variant of the generate endpoint. Chunks are native to
// the API; each candidate part is one fragment.
func (p *geminiProvider) Stream(ctx context.Context, req *Request, ch chan<- StreamChunk) error {
	defer close(ch)

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", p.baseURL, req.Model, p.apiKey)
	resp, err := p.post(ctx, url, p.buildRequest(req))
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

		var chunk struct {
			Candidates []struct {
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
			} `json:"candidates"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Candidates) > 0 && len(chunk.Candidates[0].Content.Parts) > 0 {
			text := chunk.Candidates[0].Content.Parts[0].Text
			if text == "" {
				continue
			}
			select {
			case ch <- StreamChunk{Content: text}:
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

	// The SSE stream has no explicit done sentinel; closure is completion.
	ch <- StreamChunk{Done: true}
	return nil
}
