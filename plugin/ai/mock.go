package ai

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
)

// MockLLMService is a scripted LLMService for testing.
// Responses are consumed in FIFO order per method.
type MockLLMService struct {
	mu sync.Mutex

	// ChatReplies are returned by Chat and, chunked, by ChatStream.
	ChatReplies []string
	// StructuredReplies are returned by ChatStructured keyed by schema name.
	StructuredReplies map[string][]string
	// Err, when set, fails every call.
	Err error

	// Calls records every invocation for assertions.
	Calls []MockLLMCall
}

// MockLLMCall records a single LLM invocation.
type MockLLMCall struct {
	Method     string
	SchemaName string
	Messages   []Message
}

// NewMockLLMService creates an empty mock.
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{
		StructuredReplies: map[string][]string{},
	}
}

func (m *MockLLMService) Chat(_ context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockLLMCall{Method: "Chat", Messages: messages})
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ChatReplies) == 0 {
		return "", errors.New("mock: no chat replies queued")
	}
	reply := m.ChatReplies[0]
	m.ChatReplies = m.ChatReplies[1:]
	return reply, nil
}

func (m *MockLLMService) ChatStream(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	contentChan := make(chan string)
	errChan := make(chan error, 1)

	reply, err := m.Chat(ctx, messages)

	go func() {
		defer close(contentChan)
		defer close(errChan)
		if err != nil {
			errChan <- err
			return
		}
		// Emit word-sized chunks to exercise incremental streaming.
		for _, chunk := range splitChunks(reply, 8) {
			select {
			case contentChan <- chunk:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return contentChan, errChan
}

func (m *MockLLMService) ChatStructured(_ context.Context, messages []Message, schemaName string, _ json.Marshaler) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockLLMCall{Method: "ChatStructured", SchemaName: schemaName, Messages: messages})
	if m.Err != nil {
		return "", m.Err
	}
	queue := m.StructuredReplies[schemaName]
	if len(queue) == 0 {
		return "", errors.Errorf("mock: no structured replies queued for schema %s", schemaName)
	}
	reply := queue[0]
	m.StructuredReplies[schemaName] = queue[1:]
	return reply, nil
}

// QueueStructured appends a structured reply for the given schema.
func (m *MockLLMService) QueueStructured(schemaName, reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StructuredReplies[schemaName] = append(m.StructuredReplies[schemaName], reply)
}

// CallCount returns the number of calls of the given method.
func (m *MockLLMService) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, call := range m.Calls {
		if call.Method == method {
			count++
		}
	}
	return count
}

func splitChunks(s string, size int) []string {
	if size <= 0 {
		return []string{s}
	}
	var chunks []string
	runes := []rune(s)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

var _ LLMService = (*MockLLMService)(nil)
