package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"cowrite/engine/internal/metrics"
)

const cacheLimit = 1000

// ErrNoProviders is returned when every provider failed or none are
// configured.
var ErrNoProviders = errors.New("ai: no provider available")

// ManagerStats is the aggregate view over the manager's lifetime.
type ManagerStats struct {
	Requests  int `json:"requests"`
	CacheHits int `json:"cacheHits"`
	Failures  int `json:"failures"`
	CacheSize int `json:"cacheSize"`
	Providers int `json:"providers"`
	Fallbacks int `json:"fallbacks"`
}

// Manager fans a request across providers in configuration order, returning
// the first success. Responses are cached by prompt+context hash; the cache
// is bounded and evicts oldest-inserted entries.
type Manager struct {
	providers []*HTTPProvider

	mu         sync.Mutex
	cache      map[string]Response
	cacheOrder []string
	stats      ManagerStats
}

func NewManager(providers []*HTTPProvider) *Manager {
	return &Manager{
		providers: providers,
		cache:     make(map[string]Response),
	}
}

func (m *Manager) Generate(ctx context.Context, req Request) (Response, error) {
	key := cacheKey(req)

	m.mu.Lock()
	m.stats.Requests++
	if cached, ok := m.cache[key]; ok {
		m.stats.CacheHits++
		m.mu.Unlock()
		cached.Cached = true
		return cached, nil
	}
	m.mu.Unlock()

	var lastErr error
	for i, provider := range m.providers {
		start := time.Now()
		resp, err := provider.Generate(ctx, req)
		if err != nil {
			lastErr = err
			log.Printf("ai: provider %s failed: %v", provider.Name(), err)
			metrics.RecordGeneration(provider.Name(), false, time.Since(start).Seconds())
			if ctx.Err() != nil {
				break
			}
			m.mu.Lock()
			m.stats.Fallbacks++
			m.mu.Unlock()
			continue
		}
		metrics.RecordGeneration(provider.Name(), true, time.Since(start).Seconds())
		if i > 0 {
			log.Printf("ai: fell back to provider %s", provider.Name())
		}
		m.store(key, resp)
		return resp, nil
	}

	m.mu.Lock()
	m.stats.Failures++
	m.mu.Unlock()
	if lastErr != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrNoProviders, lastErr)
	}
	return Response{}, ErrNoProviders
}

// Healthy reports whether at least one provider is currently healthy.
func (m *Manager) Healthy() bool {
	for _, p := range m.providers {
		if p.Healthy() {
			return true
		}
	}
	return false
}

// GenerateText adapts the manager to callers that only need the text.
func (m *Manager) GenerateText(ctx context.Context, prompt, contextText string) (string, error) {
	resp, err := m.Generate(ctx, Request{Prompt: prompt, Context: contextText})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.stats
	stats.CacheSize = len(m.cache)
	stats.Providers = len(m.providers)
	return stats
}

func (m *Manager) store(key string, resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cache[key]; exists {
		return
	}
	if len(m.cacheOrder) >= cacheLimit {
		oldest := m.cacheOrder[0]
		m.cacheOrder = m.cacheOrder[1:]
		delete(m.cache, oldest)
	}
	m.cache[key] = resp
	m.cacheOrder = append(m.cacheOrder, key)
}

func cacheKey(req Request) string {
	sum := sha256.Sum256([]byte(req.Prompt + "\x00" + req.Context))
	return hex.EncodeToString(sum[:])
}
