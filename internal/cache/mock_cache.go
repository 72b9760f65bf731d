package cache

import (
	"context"

	"github.com/evyataryagoni/ipgeobot/internal/models"
)

// MockCache is a test double for the Cache interface
type MockCache struct {
	Data map[string]*models.GeoRecord

	// Track method calls for verification in tests
	GetCalls    []string
	SetCalls    []string
	CloseCalled bool

	// Control behavior for error scenarios
	GetError error
	SetError error
}

// NewMockCache creates an empty mock cache
func NewMockCache() *MockCache {
	return &MockCache{
		Data:     map[string]*models.GeoRecord{},
		GetCalls: []string{},
		SetCalls: []string{},
	}
}

// Get implements the Cache interface
func (m *MockCache) Get(_ context.Context, ip string) (*models.GeoRecord, error) {
	m.GetCalls = append(m.GetCalls, ip)
	if m.GetError != nil {
		return nil, m.GetError
	}
	return m.Data[ip], nil
}

// Set implements the Cache interface
func (m *MockCache) Set(_ context.Context, ip string, record *models.GeoRecord) error {
	m.SetCalls = append(m.SetCalls, ip)
	if m.SetError != nil {
		return m.SetError
	}
	m.Data[ip] = record
	return nil
}

// Close implements the Cache interface
func (m *MockCache) Close() error {
	m.CloseCalled = true
	return nil
}
