package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/oxgeo/internal/infra/fsx"
)

// Store 提供按 URL 索引的文件缓存读写。
//
// 布局：<root>/<host>/<sha1(url)>
// - host 目录只用于人工排查；key 由完整 URL 决定
// - ReadOnly=true 时禁止写入
type Store struct {
	Root     string
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// Path 返回 URL 对应的缓存文件绝对路径。
func (s Store) Path(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("url 不能为空")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := cleanHost(u.Host)
	sum := sha1.Sum([]byte(rawURL))
	return filepath.Join(s.Root, host, hex.EncodeToString(sum[:])), nil
}

// Read 读取缓存；未命中返回 ok=false 且 err=nil。
func (s Store) Read(rawURL string) ([]byte, bool, error) {
	path, err := s.Path(rawURL)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s Store) Write(rawURL string, body []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	path, err := s.Path(rawURL)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), body)
}

var hostRE = regexp.MustCompile(`[^a-z0-9.\-]+`)

// cleanHost 只保留安全字符，避免路径穿越；空 host（例如 file: URL）归入 "_"。
func cleanHost(h string) string {
	h = hostRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), "_")
	h = strings.Trim(h, ".")
	if h == "" {
		return "_"
	}
	return h
}
