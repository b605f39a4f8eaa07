// Package fetch 提供注入式的抓取能力：网络直连或本地缓存，整个 run 只选其一。
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/John-Robertt/oxgeo/internal/infra/cache"
)

// Fetcher 抓取 URL 的原始字节。
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPStatusError 表示站点返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d：%s", e.StatusCode, e.URL)
}

// Net 直接走网络抓取。
type Net struct {
	Client *http.Client
}

func (n Net) Fetch(ctx context.Context, u string) ([]byte, error) {
	if n.Client == nil {
		return nil, errors.New("http client 不能为空")
	}
	slog.Info("reading", "url", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := n.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

// Cached 是按 URL 索引的读穿缓存：命中直接返回；未命中走 Upstream 并写回缓存。
type Cached struct {
	Store    cache.Store
	Upstream Fetcher
}

func (c Cached) Fetch(ctx context.Context, u string) ([]byte, error) {
	b, ok, err := c.Store.Read(u)
	if err != nil {
		return nil, err
	}
	if ok {
		slog.Debug("cache hit", "url", u)
		return b, nil
	}
	if c.Upstream == nil {
		return nil, fmt.Errorf("缓存未命中且没有上游：%s", u)
	}

	b, err = c.Upstream.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	if !c.Store.ReadOnly {
		if err := c.Store.Write(u, b); err != nil {
			return nil, fmt.Errorf("写入缓存失败：%w", err)
		}
	}
	return b, nil
}

// Mode 是 run 级的抓取模式。
type Mode int

const (
	ModeNetwork Mode = iota
	ModeCache
)

func (m Mode) String() string {
	if m == ModeCache {
		return "cache"
	}
	return "network"
}

// New 按模式构造 Fetcher；所有外部抓取统一走同一实现，没有混合模式。
func New(mode Mode, c *http.Client, store cache.Store) Fetcher {
	n := Net{Client: c}
	if mode == ModeCache {
		return Cached{Store: store, Upstream: n}
	}
	return n
}

// Text 抓取并解码为字符串：优先 UTF-8，非法 UTF-8 时按 ISO-8859-1 解码。
func Text(ctx context.Context, f Fetcher, u string) (string, error) {
	b, err := f.Fetch(ctx, u)
	if err != nil {
		return "", err
	}
	return Decode(b), nil
}

// Decode 把页面字节解码为字符串（UTF-8 优先，回退 ISO-8859-1）。
func Decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	s, err := charmap.ISO8859_1.NewDecoder().String(string(b))
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return s
}
