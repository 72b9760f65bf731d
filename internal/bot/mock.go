package bot

import (
	"context"
	"sync"

	"github.com/evyataryagoni/ipgeobot/internal/models"
)

// MockLookuper is a test double for Lookuper
type MockLookuper struct {
	mu      sync.Mutex
	Result  models.LookupResult
	Queries []models.IPQuery
	Panic   interface{} // when set, Lookup panics with it
}

// NewMockLookuper creates a mock returning result for every query
func NewMockLookuper(result models.LookupResult) *MockLookuper {
	return &MockLookuper{Result: result, Queries: []models.IPQuery{}}
}

// Lookup implements Lookuper
func (m *MockLookuper) Lookup(_ context.Context, query models.IPQuery) models.LookupResult {
	m.mu.Lock()
	m.Queries = append(m.Queries, query)
	m.mu.Unlock()

	if m.Panic != nil {
		panic(m.Panic)
	}
	return m.Result
}

// Calls returns a copy of the recorded queries
func (m *MockLookuper) Calls() []models.IPQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.IPQuery(nil), m.Queries...)
}

// MockResponder records replies instead of sending them
type MockResponder struct {
	mu   sync.Mutex
	Sent []models.OutgoingMessage

	// FailOn holds 0-based indexes of sends that return Err
	FailOn map[int]bool
	Err    error
}

// NewMockResponder creates a responder that accepts everything
func NewMockResponder() *MockResponder {
	return &MockResponder{FailOn: map[int]bool{}}
}

// Respond implements Responder
func (m *MockResponder) Respond(_ context.Context, msg models.OutgoingMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := len(m.Sent)
	m.Sent = append(m.Sent, msg)
	if m.FailOn[index] {
		return m.Err
	}
	return nil
}

// Texts returns the text of every reply, in order
func (m *MockResponder) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	texts := make([]string, 0, len(m.Sent))
	for _, msg := range m.Sent {
		texts = append(texts, msg.Text)
	}
	return texts
}
