package engine

import (
	"context"
	"sync"

	"github.com/quillfin/quill/internal/model"
)

// MockPrompter is a scriptable Prompter for tests.
type MockPrompter struct {
	// Decisions maps transaction ids to the decision to return.
	Decisions map[string]model.Decision
	// Default is returned for ids without a scripted decision.
	Default model.Decision
	// Err, when set, fails every prompt.
	Err error

	mu        sync.Mutex
	Confirmed []model.PendingResolution
}

// ConfirmResolution implements Prompter.
func (m *MockPrompter) ConfirmResolution(_ context.Context, pending model.PendingResolution) (model.Decision, error) {
	m.mu.Lock()
	m.Confirmed = append(m.Confirmed, pending)
	m.mu.Unlock()

	if m.Err != nil {
		return model.Decision{}, m.Err
	}
	if d, ok := m.Decisions[pending.TransactionID]; ok {
		return d, nil
	}
	if m.Default.Action == "" {
		return model.Decision{Action: model.DecisionSkip}, nil
	}
	return m.Default, nil
}

// Prompts returns the pending rows the mock was asked about.
func (m *MockPrompter) Prompts() []model.PendingResolution {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.PendingResolution, len(m.Confirmed))
	copy(out, m.Confirmed)
	return out
}
