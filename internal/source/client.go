package source

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

// isPlaceholder 判断凭证是否缺失或仍是占位符
func isPlaceholder(key string) bool {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range []string{"your-", "your_", "placeholder", "changeme", "xxx"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// newHTTPClient 创建带超时的 HTTP 客户端
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// doJSON 发送 JSON 请求并解析响应
// 非 2xx 状态码作为错误返回, 错误信息包含响应体前缀便于排查
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(payload))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// probe 轻量连通性探测, 与 Fetch 相互独立
func probe(ctx context.Context, client *http.Client, url string, headers map[string]string) (bool, string) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := doJSON(ctx, client, http.MethodGet, url, headers, nil, nil); err != nil {
		return false, err.Error()
	}
	return true, "ok"
}
