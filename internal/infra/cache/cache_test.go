package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStore_ReadWrite(t *testing.T) {
	root := t.TempDir()
	u := "https://en.wikipedia.org/wiki/ISO_3166-1_alpha-2"

	s := New(root, false)
	if _, ok, err := s.Read(u); err != nil || ok {
		t.Fatalf("空缓存不应命中：ok=%v err=%v", ok, err)
	}
	if err := s.Write(u, []byte("<html/>")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, ok, err := s.Read(u)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !ok {
		t.Fatalf("期望命中缓存，但 ok=false")
	}
	if string(b) != "<html/>" {
		t.Fatalf("内容不一致：%q", string(b))
	}

	path, err := s.Path(u)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !strings.HasPrefix(path, filepath.Join(root, "en.wikipedia.org")) {
		t.Fatalf("缓存路径应按 host 分目录：%q", path)
	}
}

func TestStore_KeyIsFullURL(t *testing.T) {
	s := New(t.TempDir(), false)
	a, _ := s.Path("https://en.wikipedia.org/wiki/France")
	b, _ := s.Path("https://en.wikipedia.org/wiki/Germany")
	if a == b {
		t.Fatalf("不同 URL 不应映射到同一缓存文件")
	}
}

func TestStore_ReadOnlyRejectWrite(t *testing.T) {
	root := t.TempDir()
	u := "https://www.imdb.com/country/"

	s := New(root, true)
	err := s.Write(u, []byte(`<html/>`))
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("期望 ErrReadOnly，实际：%v", err)
	}

	path, _ := s.Path(u)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("期望文件不存在，但 Stat err=%v", err)
	}
}

func TestStore_EmptyURL(t *testing.T) {
	if _, err := New(t.TempDir(), false).Path(" "); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}
