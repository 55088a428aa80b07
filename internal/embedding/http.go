package embedding

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/vthunder/chronograph/internal/logging"
)

// embeddingCache is a fixed-size FIFO cache for embeddings, reducing
// repeated round-trips to the backend for repeatedly-embedded content
// (e.g. a tag-only metadata update that re-embeds unchanged text).
type embeddingCache struct {
	mu      sync.Mutex
	items   map[string][]float32
	order   []string
	maxSize int
}

func newEmbeddingCache(maxSize int) *embeddingCache {
	return &embeddingCache{
		items:   make(map[string][]float32, maxSize),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

func (c *embeddingCache) get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *embeddingCache) set(key string, emb []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; !exists {
		if len(c.order) >= c.maxSize {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.items, oldest)
		}
		c.order = append(c.order, key)
	}
	c.items[key] = emb
}

// HTTPClient is a Provider backed by an Ollama-compatible embeddings
// endpoint (POST /api/embeddings). Any server implementing that wire
// format works, including Ollama itself.
type HTTPClient struct {
	baseURL string
	model   string
	client  *http.Client
	cache   *embeddingCache
}

// NewHTTPClient creates a Provider against baseURL using model. baseURL
// defaults to the local Ollama daemon; model defaults to a 384-dim
// sentence embedding model matching Dim.
func NewHTTPClient(baseURL, model string) *HTTPClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "all-minilm" // 384 dims, matches embedding.Dim
	}
	return &HTTPClient{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		cache: newEmbeddingCache(256),
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (c *HTTPClient) cacheKey(text string) string {
	h := sha256.Sum256([]byte(c.model + "\x00" + text))
	return fmt.Sprintf("%x", h[:16])
}

// Embed implements Provider.
func (c *HTTPClient) Embed(text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("embedding: empty text")
	}

	key := c.cacheKey(text)
	if cached, ok := c.cache.get(key); ok {
		return cached, nil
	}

	body, err := json.Marshal(embeddingRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal request: %w", err)
	}

	resp, err := c.client.Post(c.baseURL+"/api/embeddings", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding: backend error (status %d): %s", resp.StatusCode, string(msg))
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("embedding: decode response: %w", err)
	}
	if err := ValidateDim(result.Embedding); err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	c.cache.set(key, result.Embedding)
	logging.Debug("embedding", "embedded %d chars via %s", len(text), c.model)
	return result.Embedding, nil
}
