package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// proxyFor routes requests through the configured proxies. With none set it
// defers to the HTTP_PROXY family of environment variables.
func proxyFor(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}
	return func(req *http.Request) (*url.URL, error) {
		switch {
		case req.URL.Scheme == "https" && httpsProxy != "":
			return url.Parse(httpsProxy)
		case httpProxy != "":
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

func newHTTPClient(config Config, fallback time.Duration) *http.Client {
	timeout := fallback
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{Proxy: proxyFor(config.HTTPProxy, config.HTTPSProxy)},
	}
}

// jsonAPI is a minimal client for providers that speak plain JSON over HTTP.
type jsonAPI struct {
	client  *http.Client
	baseURL string
	headers http.Header

	// describe turns a non-200 body into a short message; "" means unknown.
	describe func(body []byte) string
}

func newJSONAPI(client *http.Client, baseURL string, describe func([]byte) string) *jsonAPI {
	return &jsonAPI{
		client:   client,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		headers:  http.Header{"Content-Type": {"application/json"}},
		describe: describe,
	}
}

// post sends in as JSON to path and decodes a 200 reply into out.
func (a *jsonAPI) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header = a.headers.Clone()

	body, err := a.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// ping reports whether a GET on path answers 200.
func (a *jsonAPI) ping(ctx context.Context, path string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return false
	}
	_, err = a.do(req)
	return err == nil
}

func (a *jsonAPI) do(req *http.Request) ([]byte, error) {
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusOK {
		return body, nil
	}
	msg := ""
	if a.describe != nil {
		msg = a.describe(body)
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, msg)
}
