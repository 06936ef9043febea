// Package e2e drives a running contactbook server through Gherkin scenarios.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext carries the HTTP client and the last response of a scenario.
type TestContext struct {
	BaseURL    string
	HTTPClient *http.Client

	LastStatus int
	LastBody   []byte
	// Saved holds values captured by earlier steps, e.g. created contact ids.
	Saved map[string]string
}

// NewTestContext builds a context pointed at baseURL.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Saved:      map[string]string{},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.LastStatus = 0
	tc.LastBody = nil
	tc.Saved = map[string]string{}
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body)
}

func (tc *TestContext) DELETE(path string) error {
	return tc.do(http.MethodDelete, path, nil)
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.LastStatus = resp.StatusCode
	tc.LastBody, err = io.ReadAll(resp.Body)
	return err
}

// Status returns the last response status.
func (tc *TestContext) Status() int {
	return tc.LastStatus
}

// DecodeBody unmarshals the last response body into v.
func (tc *TestContext) DecodeBody(v any) error {
	if err := json.Unmarshal(tc.LastBody, v); err != nil {
		return fmt.Errorf("decode %q: %w", string(tc.LastBody), err)
	}
	return nil
}

func (tc *TestContext) Save(key, value string) {
	tc.Saved[key] = value
}

func (tc *TestContext) Lookup(key string) (string, bool) {
	v, ok := tc.Saved[key]
	return v, ok
}
