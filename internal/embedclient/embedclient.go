// Package embedclient is the HTTP client for the external embedding model
// collaborator named in spec.md §1, grounded on
// intelligencedev-manifold/internal/embeddings/embeddings.go's
// OpenAI-compatible /v1/embeddings request/response shape.
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/oculairmedia/graphiti/internal/platform/apperr"
)

// Client implements orchestrator.Embedder against an OpenAI-compatible
// embeddings endpoint (llama.cpp server, Ollama, vLLM, etc).
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

// New builds a Client whose outbound transport is wrapped with otelhttp, so
// embedding calls appear as child spans under the request that triggered
// them, per SPEC_FULL.md §6.4's ambient tracing stack.
func New(baseURL, model string) *Client {
	return &Client{
		baseURL: baseURL,
		model:   model,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type embeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed fetches a single query embedding.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body := embeddingRequest{Input: []string{text}, Model: c.model, EncodingFormat: "float"}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "marshal embedding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "build embedding request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ExternalUnavailable, "embedding service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.ExternalUnavailable, fmt.Sprintf("embedding service returned %d", resp.StatusCode))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(apperr.ParseFailed, "decode embedding response", err)
	}
	if len(parsed.Data) == 0 {
		return nil, apperr.New(apperr.ExternalUnavailable, "embedding service returned no data")
	}
	return parsed.Data[0].Embedding, nil
}
