package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the public Google Translate endpoint.
const DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// DefaultTimeout bounds a single translation request.
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 512

// Translator translates text between two locale codes.
type Translator interface {
	Translate(ctx context.Context, text, src, dst string) (string, error)
}

// GoogleClient talks to the Google Translate web endpoint.
type GoogleClient struct {
	Endpoint string
	client   *http.Client
}

// NewGoogleClient creates a client. An empty proxyURL falls back to the
// HTTP_PROXY/HTTPS_PROXY environment variables.
func NewGoogleClient(proxyURL string, timeout time.Duration) *GoogleClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GoogleClient{
		Endpoint: DefaultEndpoint,
		client:   makeHTTPClient(proxyURL, timeout),
	}
}

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Translate implements Translator.
func (c *GoogleClient) Translate(ctx context.Context, text, src, dst string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", src)
	q.Set("tl", dst)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return "", fmt.Errorf("translate %s->%s: HTTP %d: %s", src, dst, resp.StatusCode, strings.TrimSpace(snippet))
	}
	return parseGoogleResponse(body)
}

// parseGoogleResponse joins the translated segments of a response shaped
// like [[["Hallo","Hello",...],["Welt","world",...]],...].
func parseGoogleResponse(body []byte) (string, error) {
	var root []json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(root) == 0 {
		return "", fmt.Errorf("empty response")
	}
	var segments [][]any
	if err := json.Unmarshal(root[0], &segments); err != nil {
		return "", fmt.Errorf("decode segments: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			sb.WriteString(s)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no translation in response")
	}
	return sb.String(), nil
}
