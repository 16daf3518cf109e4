// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package testhelper provides shared helpers for the test suites
package testhelper

import (
	"net/http"
	"os"
	"testing"
)

// TestOnlineAPIURL is an online endpoint used by the integration tests
const TestOnlineAPIURL = "https://nominatim.openstreetmap.org/status"

// MockRoundTripper is a http.RoundTripper that delegates to a test-provided
// function
type MockRoundTripper struct {
	Fn func(req *http.Request) (*http.Response, error)
}

// RoundTrip satisfies the http.RoundTripper interface
func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// PerformIntegrationTests skips the calling test unless integration testing has
// been requested via the PERFORM_INTEGRATION_TESTS environment variable
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if os.Getenv("PERFORM_INTEGRATION_TESTS") == "" {
		t.Skip("integration tests skipped, set PERFORM_INTEGRATION_TESTS to enable them")
	}
}
