package outcome

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	drawPath       = "/api/draw"
	defaultTimeout = 10 * time.Second
)

var (
	defaultHTTPOnce sync.Once
	defaultHTTP     *http.Client
)

// DefaultHTTPClient 共享连接池，超时只由传输层控制
func DefaultHTTPClient() *http.Client {
	defaultHTTPOnce.Do(func() {
		defaultHTTP = newHTTPClient(defaultTimeout)
	})
	return defaultHTTP
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        64,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 60 * time.Second,
			}).DialContext,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// APIError 结果来源返回非 200
type APIError struct {
	Op     string
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error: http status %d", e.Op, e.Status)
}

// APIClient 通过 HTTP 调用远端 /api/draw
type APIClient struct {
	http    *http.Client
	baseURL string
}

var _ Source = (*APIClient)(nil)

// NewAPIClient 创建客户端；timeout<=0 时使用共享的默认客户端
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	c := DefaultHTTPClient()
	if timeout > 0 && timeout != defaultTimeout {
		c = newHTTPClient(timeout)
	}
	return NewAPIClientWithHTTP(baseURL, c)
}

func NewAPIClientWithHTTP(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = DefaultHTTPClient()
	}
	return &APIClient{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Draw 请求一次抽奖结果；请求体为空
func (c *APIClient) Draw(ctx context.Context) (*Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+drawPath, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.CopyN(io.Discard, resp.Body, 1024)
		return nil, &APIError{Op: "draw", Status: resp.StatusCode}
	}

	var out Outcome
	if err := jsoniter.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode draw response: %w", err)
	}
	return &out, nil
}
