package fsx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 通过可替换的函数指针，让测试能稳定模拟 rename/symlink 失败。
var (
	renameFunc  = os.Rename
	symlinkFunc = os.Symlink
)

// PathTypeConflictError 表示目标路径类型冲突（例如期望文件但实际是目录）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// WriteFileAtomic 在 dir 下原子写入 name（临时文件 + rename），目标已存在则覆盖。
func WriteFileAtomic(dir, name string, data []byte) error {
	return WriteFileAtomicReplace(dir, name, data)
}

// WriteFileAtomicReplace 写入并覆盖同名文件（尽量保持原子性；Windows 上为 best-effort）。
func WriteFileAtomicReplace(dir, name string, data []byte) error {
	dst := filepath.Join(filepath.Clean(dir), name)
	if fi, err := os.Lstat(dst); err == nil && fi.IsDir() {
		return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
	}
	return writeFileAtomic(dir, name, data, 0o644)
}

// WriteFileIfChanged 仅当目标不存在或内容不同时才写入（原子覆盖）。
//
// 语义：
// - 返回 written=true 表示本次确实落盘
// - 内容逐字节相同则不写，保证重复 run 不产生额外写入
// - 目标是符号链接时按“内容不同”处理：用实体文件替换链接
func WriteFileIfChanged(dir, name string, data []byte) (written bool, err error) {
	dst := filepath.Join(filepath.Clean(dir), name)
	fi, err := os.Lstat(dst)
	switch {
	case err == nil && fi.IsDir():
		return false, &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
	case err == nil && fi.Mode().IsRegular():
		old, rerr := os.ReadFile(dst)
		if rerr != nil {
			return false, rerr
		}
		if bytes.Equal(old, data) {
			return false, nil
		}
	case err != nil && !os.IsNotExist(err):
		return false, err
	}
	if err := writeFileAtomic(dir, name, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// Lexists 判断路径是否存在（不跟随符号链接，悬空链接也算存在）。
func Lexists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Link 在 path 处创建指向 target 的符号链接；path 已存在（含悬空链接）时不做任何事。
//
// target 按原样写入（通常是同目录下的相对文件名），父目录不存在时自动创建。
func Link(target, path string) (created bool, err error) {
	if Lexists(path) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := symlinkFunc(target, path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func writeFileAtomic(dir, name string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	// 同目录临时文件（前缀带 '.'），保证 rename 的原子性。
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// 目标是符号链接时，rename 会替换链接本身而不是写穿到链接目标。
	if err := renameFunc(tmpName, dst); err != nil {
		return err
	}

	// 目录 fsync：best-effort（不同平台/文件系统的语义差异很大）。
	_ = syncDirBestEffort(dir)
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
