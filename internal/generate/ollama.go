// Package generate drives text generation through an Ollama server
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vthunder/postbot/internal/logging"
)

// EndOfText is the truncation marker the fine-tuned models emit
const EndOfText = "<|endoftext|>"

// Params are the sampling parameters for one generation call
type Params struct {
	MaxLength     int     // tokens to predict
	Temperature   float64 // sampling temperature
	Samples       int     // number of continuations to return
	Truncate      string  // cut each continuation at this marker
	ExcludePrompt bool    // return only the continuation
}

// DefaultParams returns the parameters the models were tuned for
func DefaultParams() Params {
	return Params{
		MaxLength:     140,
		Temperature:   0.7,
		Samples:       1,
		Truncate:      EndOfText,
		ExcludePrompt: true,
	}
}

// Model is a loaded model handle
type Model interface {
	Generate(ctx context.Context, prompt string, p Params) ([]string, error)
	Close() error
}

// Loader makes the model stored in dir available for generation
type Loader interface {
	Load(ctx context.Context, modelID, dir string) (Model, error)
}

// Client talks to the Ollama HTTP API
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new Ollama client
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 120 * time.Second, // generation can take long
		},
	}
}

// createRequest is the Ollama API request format for model creation
type createRequest struct {
	Model     string `json:"model"`
	Modelfile string `json:"modelfile"`
	Stream    bool   `json:"stream"`
}

// deleteRequest is the Ollama API request format for model removal
type deleteRequest struct {
	Model string `json:"model"`
}

// Load makes modelID available for generation. When dir holds a Modelfile
// it is registered as a temporary model that Close removes again; otherwise
// modelID must already be a model tag known to the server.
func (c *Client) Load(ctx context.Context, modelID, dir string) (Model, error) {
	if dir == "" {
		return &ollamaModel{client: c, name: modelID}, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, "Modelfile"))
	if errors.Is(err, fs.ErrNotExist) {
		logging.Debug("generate", "no Modelfile in %s, using tag %s", dir, modelID)
		return &ollamaModel{client: c, name: modelID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read Modelfile: %w", err)
	}

	// unique per load so concurrent invocations never delete each other's model
	name := "postbot-" + modelID + "-" + uuid.NewString()[:8]
	req := createRequest{
		Model:     name,
		Modelfile: absoluteFrom(string(data), dir),
		Stream:    false,
	}
	if err := c.post(ctx, "/api/create", req, nil); err != nil {
		return nil, fmt.Errorf("create model %s: %w", name, err)
	}
	logging.Info("generate", "Created model %s from %s", name, dir)
	return &ollamaModel{client: c, name: name, created: true}, nil
}

// absoluteFrom rewrites relative FROM paths to point into dir
func absoluteFrom(modelfile, dir string) string {
	lines := strings.Split(modelfile, "\n")
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 2 && strings.EqualFold(fields[0], "FROM") && strings.HasPrefix(fields[1], ".") {
			lines[i] = "FROM " + filepath.Join(dir, fields[1])
		}
	}
	return strings.Join(lines, "\n")
}

// generateRequest is the Ollama API request format for generation
type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Raw     bool           `json:"raw"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// generateResponse is the Ollama API response format for generation
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaModel struct {
	client  *Client
	name    string
	created bool
}

// Generate returns p.Samples continuations of prompt
func (m *ollamaModel) Generate(ctx context.Context, prompt string, p Params) ([]string, error) {
	if p.Samples <= 0 {
		p.Samples = 1
	}

	options := map[string]any{
		"num_predict": p.MaxLength,
		"temperature": p.Temperature,
	}
	if p.Truncate != "" {
		options["stop"] = []string{p.Truncate}
	}

	// raw mode: the prompt already carries the training-format markers
	req := generateRequest{
		Model:   m.name,
		Prompt:  prompt,
		Raw:     true,
		Stream:  false,
		Options: options,
	}

	samples := make([]string, 0, p.Samples)
	for i := 0; i < p.Samples; i++ {
		var resp generateResponse
		if err := m.client.post(ctx, "/api/generate", req, &resp); err != nil {
			return nil, fmt.Errorf("generate sample %d: %w", i+1, err)
		}

		text := resp.Response
		if p.Truncate != "" {
			if idx := strings.Index(text, p.Truncate); idx >= 0 {
				text = text[:idx]
			}
		}
		if !p.ExcludePrompt {
			text = prompt + text
		}
		samples = append(samples, text)
	}
	return samples, nil
}

// Close removes the model if Load created it
func (m *ollamaModel) Close() error {
	if !m.created {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := m.client.send(ctx, http.MethodDelete, "/api/delete", deleteRequest{Model: m.name}, nil); err != nil {
		return fmt.Errorf("delete model %s: %w", m.name, err)
	}
	logging.Debug("generate", "Deleted model %s", m.name)
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPost, path, body, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
