package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	Locale = "pt-br"
	Codec  = "MP3"

	maxErrorBody = 4 << 10
)

// VoiceRSSClient fetches MP3 speech from the VoiceRSS HTTP API.
type VoiceRSSClient struct {
	apiKey  string
	baseURL string
	httpCli *http.Client
}

func NewVoiceRSSClient(apiKey, baseURL string, httpCli *http.Client) *VoiceRSSClient {
	if httpCli == nil {
		httpCli = http.DefaultClient
	}
	return &VoiceRSSClient{apiKey: apiKey, baseURL: baseURL, httpCli: httpCli}
}

func (c *VoiceRSSClient) Synthesize(ctx context.Context, text string) (*Audio, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("voicerss url: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("hl", Locale)
	q.Set("c", Codec)
	q.Set("src", text)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voicerss request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	// VoiceRSS reports bad keys and quota errors as a 200 text body starting with "ERROR"
	br := bufio.NewReader(resp.Body)
	if head, _ := br.Peek(len("ERROR")); string(head) == "ERROR" {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(br, maxErrorBody))
		return nil, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	return &Audio{
		Body: struct {
			io.Reader
			io.Closer
		}{br, resp.Body},
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
