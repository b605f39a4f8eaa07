// Package harvest 从 Wikipedia 列表页收集候选国家。
package harvest

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/oxgeo/internal/annotation"
	"github.com/John-Robertt/oxgeo/internal/domain"
	"github.com/John-Robertt/oxgeo/internal/extract"
	"github.com/John-Robertt/oxgeo/internal/fetch"
	"github.com/John-Robertt/oxgeo/internal/wiki"
)

// 列表页标题。
const (
	PageFormerCodes     = "ISO 3166-3"
	PageAlpha2Codes     = "ISO 3166-1 alpha-2"
	PageSovereignStates = "List of sovereign states"
)

// Harvester 按固定顺序收集候选：
// 注解额外标题 -> ISO 3166-3（不去重）-> ISO 3166-1 alpha-2（去重）-> 主权国家列表（去重）。
type Harvester struct {
	Fetcher    fetch.Fetcher
	Annotation *annotation.Set
	BaseURL    string
}

// Candidates 返回未排序的候选国家（只有 name/wikipediaName/code）。
func (h Harvester) Candidates(ctx context.Context) ([]domain.Country, error) {
	if h.Fetcher == nil || h.Annotation == nil {
		return nil, fmt.Errorf("harvester 未初始化")
	}

	var out []domain.Country
	for _, title := range h.Annotation.ExtraTitles() {
		out = append(out, h.parse(domain.Candidate{Title: title}))
	}

	doc, err := h.page(ctx, PageFormerCodes, nil)
	if err != nil {
		return nil, err
	}
	for _, c := range (extract.FormerCodes{}).Candidates(doc) {
		if wiki.DecodeTitle(c.Title) == "Rhodesia" {
			// ISO 3166-3 把南罗得西亚登记为 Rhodesia。
			c.Title = "Southern_Rhodesia"
		}
		out = append(out, h.parse(c))
	}

	doc, err = h.page(ctx, PageAlpha2Codes, extract.CutReserved)
	if err != nil {
		return nil, err
	}
	alpha2 := (extract.Alpha2Codes{}).Candidates(doc)
	for i := range alpha2 {
		if to, ok := h.Annotation.WikipediaURL(wiki.DecodeTitle(alpha2[i].Title)); ok {
			alpha2[i].Title = wiki.EncodeTitle(to)
		}
	}
	out = appendNew(out, h.parseAll(alpha2))

	doc, err = h.page(ctx, PageSovereignStates, nil)
	if err != nil {
		return nil, err
	}
	out = appendNew(out, h.parseAll((extract.SovereignStates{}).Candidates(doc)))
	return out, nil
}

func (h Harvester) page(ctx context.Context, title string, fix func(string) string) (*goquery.Document, error) {
	html, err := fetch.Text(ctx, h.Fetcher, wiki.ArticleURL(h.BaseURL, title))
	if err != nil {
		return nil, fmt.Errorf("抓取 %q 失败：%w", title, err)
	}
	if fix != nil {
		html = fix(html)
	}
	return extract.Parse(html)
}

func (h Harvester) parseAll(cs []domain.Candidate) []domain.Country {
	out := make([]domain.Country, 0, len(cs))
	for _, c := range cs {
		out = append(out, h.parse(c))
	}
	return out
}

// parse 把候选转换为国家：标题解码；在 annotation.name 中时使用显示名并保留原标题。
func (h Harvester) parse(c domain.Candidate) domain.Country {
	title := wiki.DecodeTitle(c.Title)
	out := domain.Country{Code: strings.TrimSpace(c.Code), Name: title}
	if name, ok := h.Annotation.DisplayName(title); ok {
		out.Name = name
		out.WikipediaName = title
	}
	return out
}

// appendNew 依次追加 add 中名字尚未出现的国家；同一批内部也按顺序去重。
func appendNew(dst, add []domain.Country) []domain.Country {
	seen := make(map[string]struct{}, len(dst)+len(add))
	for _, c := range dst {
		seen[c.Name] = struct{}{}
	}
	for _, c := range add {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		dst = append(dst, c)
	}
	return dst
}
