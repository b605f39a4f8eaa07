package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecute_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute([]string{"version"}, t.TempDir(), &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("期望退出码 0，实际=%d stderr=%s", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "oxgeo ") {
		t.Fatalf("期望输出版本号，实际=%q", stdout.String())
	}
}

func TestExecute_UsageError(t *testing.T) {
	for _, args := range [][]string{
		{"run", "--bogus"},
		{"run", "extra"},
		{"nope"},
	} {
		var stdout, stderr bytes.Buffer
		if code := execute(args, t.TempDir(), &stdout, &stderr); code != exitUsage {
			t.Fatalf("args=%v 期望退出码 2，实际=%d", args, code)
		}
		if stdout.Len() != 0 {
			t.Fatalf("args=%v 用法错误不应写 stdout，实际=%q", args, stdout.String())
		}
	}
}

func TestExecute_MissingExplicitConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute([]string{"run", "--config", "missing.yaml"}, t.TempDir(), &stdout, &stderr)
	if code != exitFatal {
		t.Fatalf("期望退出码 1，实际=%d", code)
	}
	if !strings.Contains(stderr.String(), "config_not_found") {
		t.Fatalf("stderr 应包含 config_not_found，实际=%q", stderr.String())
	}
}

func TestExecute_AnnotationFailureWritesDebug(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "txt", "countries.txt"), "")
	raw := "name: [unclosed\n"
	writeFile(t, filepath.Join(cwd, "yaml", "countries.yaml"), raw)

	var stdout, stderr bytes.Buffer
	code := execute([]string{"run"}, cwd, &stdout, &stderr)
	if code != exitFatal {
		t.Fatalf("期望退出码 1，实际=%d stderr=%s", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("失败时 stdout 应为空，实际=%q", stdout.String())
	}

	b, err := os.ReadFile(filepath.Join(cwd, "yaml", "debug.yaml"))
	if err != nil {
		t.Fatalf("期望写出 debug 文件：%v", err)
	}
	if string(b) != raw {
		t.Fatalf("debug 内容应为原始注解，实际=%q", string(b))
	}
	if _, err := os.Stat(filepath.Join(cwd, "json", "countries.json")); !os.IsNotExist(err) {
		t.Fatalf("注解失败时不应写出 countries.json，err=%v", err)
	}
}

func TestIsTTY_Buffer(t *testing.T) {
	if isTTY(&bytes.Buffer{}) {
		t.Fatalf("bytes.Buffer 不应被识别为 TTY")
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
