package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type providerConfig struct {
	url   string
	model string
	extra map[string]interface{}
}

var providers = map[string]providerConfig{
	"jina": {
		url:   "https://api.jina.ai/v1/rerank",
		model: "jina-reranker-v1-base-en",
	},
	"cohere": {
		url:   "https://api.cohere.ai/v1/rerank",
		model: "rerank-english-v3.0",
		extra: map[string]interface{}{"return_documents": false},
	},
}

// Client calls an external re-ranking API and returns document indices in
// relevance order. Unknown providers degrade to identity order so the
// semantic-hybrid path keeps working without a rerank key.
type Client struct {
	apiKey   string
	provider string
	client   *http.Client
	baseURL  string
}

func NewClient(provider, apiKey string) *Client {
	return &Client{
		provider: provider,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

func (c *Client) Rerank(ctx context.Context, query string, docs []string) ([]int, error) {
	cfg, ok := providers[c.provider]
	if !ok {
		indices := make([]int, len(docs))
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}
	return c.rerank(ctx, cfg, query, docs)
}

func (c *Client) rerank(ctx context.Context, cfg providerConfig, query string, docs []string) ([]int, error) {
	url := cfg.url
	if c.baseURL != "" {
		url = c.baseURL
	}

	reqBody := map[string]interface{}{
		"model":     cfg.model,
		"query":     query,
		"documents": docs,
		"top_n":     len(docs),
	}
	for key, value := range cfg.extra {
		reqBody[key] = value
	}

	jsonBody, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%s api error: %d: %s", c.provider, resp.StatusCode, body)
	}

	var result struct {
		Results []struct {
			Index int     `json:"index"`
			Score float64 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	indices := make([]int, 0, len(docs))
	for _, r := range result.Results {
		if r.Index < len(docs) {
			indices = append(indices, r.Index)
		}
	}
	return indices, nil
}
