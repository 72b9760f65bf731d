package service

import (
	"context"

	"github.com/evyataryagoni/ipgeobot/internal/models"
)

// MockGeoClient is a test double for GeoClient.
// It returns Result for every query and records the queries it saw.
type MockGeoClient struct {
	Result  models.LookupResult
	Queries []models.IPQuery
}

// NewMockGeoClient creates a mock returning result
func NewMockGeoClient(result models.LookupResult) *MockGeoClient {
	return &MockGeoClient{
		Result:  result,
		Queries: []models.IPQuery{},
	}
}

// Lookup implements GeoClient
func (m *MockGeoClient) Lookup(_ context.Context, query models.IPQuery) models.LookupResult {
	m.Queries = append(m.Queries, query)
	return m.Result
}
