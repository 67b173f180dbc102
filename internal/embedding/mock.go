package embedding

import (
	"context"
	"crypto/sha256"
	"sync"
)

// MockClient is a deterministic embedder for tests. Vectors are derived
// from a hash of the text, so equal texts always embed identically and
// different texts are effectively orthogonal.
type MockClient struct {
	// Vectors maps a text to a fixed vector, overriding the hash.
	Vectors map[string][]float64
	// Err, when set, is returned for every batch.
	Err error

	mu    sync.Mutex
	calls int
}

// EmbedBatch implements Client.
func (m *MockClient) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	out := make([][]float64, len(texts))
	for i, text := range texts {
		if v, ok := m.Vectors[text]; ok {
			out[i] = append([]float64(nil), v...)
			continue
		}
		sum := sha256.Sum256([]byte(text))
		vec := make([]float64, 8)
		for j := range vec {
			vec[j] = float64(sum[j]) / 255.0
		}
		out[i] = vec
	}
	return out, nil
}

// Calls returns how many batches the mock has served.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
