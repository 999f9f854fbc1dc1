package router

import (
	"context"
	"sync"
)

// MockClassifierService is a scripted classifier for testing.
type MockClassifierService struct {
	mu sync.Mutex

	// Results are consumed in FIFO order; when exhausted, Fallback is used.
	Results []*Result
	// Fallback is returned when Results is empty. Defaults to dialogue.
	Fallback *Result
	// Err, when set, fails every call.
	Err error

	// Inputs records every classified input for assertions.
	Inputs []string
}

func NewMockClassifierService() *MockClassifierService {
	return &MockClassifierService{
		Fallback: &Result{Intent: IntentDialogue, Confidence: 1.0, Method: "mock"},
	}
}

func (m *MockClassifierService) Classify(_ context.Context, input string, _ []string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Inputs = append(m.Inputs, input)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Results) > 0 {
		result := m.Results[0]
		m.Results = m.Results[1:]
		return result, nil
	}
	return m.Fallback, nil
}

var _ ClassifierService = (*MockClassifierService)(nil)
