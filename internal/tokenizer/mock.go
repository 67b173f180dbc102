package tokenizer

import (
	"context"
	"strings"
	"sync"
)

// MockClient is a deterministic tokenizer for tests. No network access.
type MockClient struct {
	// Tokens maps a raw description to the token to return. Unmapped
	// descriptions fall through to heuristic cleaning.
	Tokens map[string]string
	// Err, when set, is returned for every batch.
	Err error
	// FailBatches marks batch indexes (in call order) that should fail.
	FailBatches map[int]error

	mu    sync.Mutex
	calls int

	// Batches records every batch received, for order assertions.
	Batches [][]string
}

// TokenizeBatch implements Client.
func (m *MockClient) TokenizeBatch(ctx context.Context, descriptions []string) ([]string, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	m.Batches = append(m.Batches, append([]string(nil), descriptions...))
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if err, ok := m.FailBatches[call]; ok {
		return nil, err
	}

	tokens := make([]string, len(descriptions))
	for i, d := range descriptions {
		if tok, ok := m.Tokens[d]; ok {
			tokens[i] = tok
			continue
		}
		tokens[i] = strings.ToLower(Clean(d))
	}
	return tokens, nil
}

// Calls returns how many batches the mock has served.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
