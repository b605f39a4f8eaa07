// Package wiki 负责 Wikipedia 标题在“显示形态”与“URL 形态”之间的转换。
package wiki

import (
	"net/url"
	"strings"
)

// DefaultBaseURL 是英文 Wikipedia 条目 URL 前缀。
const DefaultBaseURL = "https://en.wikipedia.org/wiki/"

// EncodeTitle 把显示形态的标题转换为 URL 形态（空格 -> 下划线）。
// 不做百分号编码：Wikipedia 接受原样的 UTF-8 路径，缓存 key 也因此与历史保持一致。
func EncodeTitle(title string) string {
	return strings.ReplaceAll(title, " ", "_")
}

// DecodeTitle 把 URL 形态的标题还原为显示形态（下划线 -> 空格，百分号解码）。
// 解码失败（非法 %XX）时保留原样。
func DecodeTitle(id string) string {
	s := strings.ReplaceAll(id, "_", " ")
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}

// ArticleURL 拼接条目 URL。
func ArticleURL(base, title string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + EncodeTitle(title)
}

// TitleFromHref 从 "/wiki/<title>" 或 "/w/index.php?title=<title>" 中提取 URL 形态的标题。
func TitleFromHref(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if rest, ok := strings.CutPrefix(href, "/wiki/"); ok {
		if i := strings.IndexAny(rest, "#?"); i >= 0 {
			rest = rest[:i]
		}
		return rest, rest != ""
	}
	if strings.HasPrefix(href, "/w/index.php?") {
		u, err := url.Parse(href)
		if err != nil {
			return "", false
		}
		t := u.Query().Get("title")
		return EncodeTitle(t), t != ""
	}
	return "", false
}
