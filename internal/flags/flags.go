// Package flags 把国旗图片落盘：每个 flagURL 只保存一份实体文件，其余国家用符号链接指向它。
package flags

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/John-Robertt/oxgeo/internal/annotation"
	"github.com/John-Robertt/oxgeo/internal/domain"
	"github.com/John-Robertt/oxgeo/internal/fetch"
	"github.com/John-Robertt/oxgeo/internal/infra/fsx"
	"github.com/John-Robertt/oxgeo/internal/infra/imgx"
)

// Materializer 的输出布局（相对 Root）：
//
//	<ext>/flags/<CODE>.<ext>          owner 实体文件；alias 为链接
//	<ext>/icons/<CODE>.<ext>          alias 链接
//	png/icons/<size>/<CODE>.png       位图 owner 的图标分级；alias 为链接
type Materializer struct {
	Fetcher    fetch.Fetcher
	Root       string
	Annotation *annotation.Set
}

// rank 决定谁持有实体文件：0 普通国家，1 依附地区或已解散，2 flag_link 中列出的国家。
func (m Materializer) rank(c domain.Country) int {
	if m.Annotation != nil && m.Annotation.IsFlagLink(c.Name) {
		return 2
	}
	if c.IsDependent() || c.IsDissolved() {
		return 1
	}
	return 0
}

// Materialize 按 owner 优先级落盘国旗。输入应已按 code 排好序；同一 rank 内保持输入顺序。
// 重复执行且输入不变时不会产生写入。
func (m Materializer) Materialize(ctx context.Context, cs []domain.Country) (domain.FlagResult, error) {
	res := domain.FlagResult{Owners: map[string]string{}}
	if m.Fetcher == nil {
		return res, fmt.Errorf("materializer 未初始化")
	}

	order := make([]domain.Country, 0, len(cs))
	for _, c := range cs {
		if c.FlagURL == "" {
			continue
		}
		if !c.HasCode() {
			slog.Warn("flag skipped: no code", "country", c.Name)
			res.Skipped++
			continue
		}
		order = append(order, c)
	}
	sort.SliceStable(order, func(i, j int) bool { return m.rank(order[i]) < m.rank(order[j]) })

	owners := map[string]string{} // flagURL -> owner code
	for _, c := range order {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ext := extension(c.FlagURL)
		owner, ok := owners[c.FlagURL]
		if !ok {
			owners[c.FlagURL] = c.Code
			if err := m.writeOwner(ctx, c, ext, &res); err != nil {
				return res, err
			}
			continue
		}
		res.Owners[c.Code] = owner
		if err := m.linkAlias(c.Code, owner, ext, &res); err != nil {
			return res, err
		}
	}

	slog.Info("flags materialized",
		"fetched", humanize.Comma(int64(res.Fetched)),
		"written", humanize.Comma(int64(res.Written)),
		"unchanged", humanize.Comma(int64(res.Unchanged)),
		"linked", humanize.Comma(int64(res.Linked)),
	)
	return res, nil
}

func (m Materializer) writeOwner(ctx context.Context, c domain.Country, ext string, res *domain.FlagResult) error {
	b, err := m.Fetcher.Fetch(ctx, c.FlagURL)
	if err != nil {
		return fmt.Errorf("下载国旗失败（%s）：%w", c.Code, err)
	}
	res.Fetched++
	slog.Debug("flag fetched", "code", c.Code, "size", humanize.Bytes(uint64(len(b))))

	if err := m.write(filepath.Join(m.Root, ext, "flags"), c.Code+"."+ext, b, res); err != nil {
		return err
	}
	if ext != "png" || !imgx.IsRaster(b) {
		return nil
	}
	for _, size := range imgx.IconSizes {
		icon, err := imgx.IconPNG(b, size)
		if err != nil {
			return fmt.Errorf("生成图标失败（%s %dpx）：%w", c.Code, size, err)
		}
		if err := m.write(m.iconDir(size), c.Code+".png", icon, res); err != nil {
			return err
		}
	}
	return nil
}

func (m Materializer) write(dir, name string, b []byte, res *domain.FlagResult) error {
	written, err := fsx.WriteFileIfChanged(dir, name, b)
	if err != nil {
		return err
	}
	if written {
		res.Written++
	} else {
		res.Unchanged++
	}
	return nil
}

// linkAlias 只在链接路径不存在时创建链接；已存在的文件或链接保持不动。
func (m Materializer) linkAlias(code, owner, ext string, res *domain.FlagResult) error {
	links := [][2]string{
		{owner + "." + ext, filepath.Join(m.Root, ext, "flags", code+"."+ext)},
		{owner + "." + ext, filepath.Join(m.Root, ext, "icons", code+"."+ext)},
	}
	for _, size := range imgx.IconSizes {
		links = append(links, [2]string{owner + ".png", filepath.Join(m.iconDir(size), code+".png")})
	}
	for _, l := range links {
		created, err := fsx.Link(l[0], l[1])
		if err != nil {
			return err
		}
		if created {
			res.Linked++
		}
	}
	return nil
}

func (m Materializer) iconDir(size int) string {
	return filepath.Join(m.Root, "png", "icons", strconv.Itoa(size))
}

// extension 取 URL 的最后三个字符作为扩展名（svg/png）。
func extension(u string) string {
	if len(u) < 3 {
		return u
	}
	return u[len(u)-3:]
}
