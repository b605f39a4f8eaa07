// Package enrich 为单个候选国家补全字段：注解覆盖优先，其次条目页提取，否则缺失。
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/oxgeo/internal/annotation"
	"github.com/John-Robertt/oxgeo/internal/domain"
	"github.com/John-Robertt/oxgeo/internal/extract"
	"github.com/John-Robertt/oxgeo/internal/fetch"
	"github.com/John-Robertt/oxgeo/internal/geo"
	"github.com/John-Robertt/oxgeo/internal/wiki"
)

type Enricher struct {
	Fetcher    fetch.Fetcher
	Annotation *annotation.Set
	Geo        geo.Table
	BaseURL    string
}

// Enrich 抓取条目页并返回补全后的国家。抓取失败直接返回错误（整个 run 终止）。
func (e Enricher) Enrich(ctx context.Context, c domain.Country) (domain.Country, error) {
	if e.Fetcher == nil || e.Annotation == nil {
		return c, fmt.Errorf("enricher 未初始化")
	}
	ann := e.Annotation
	name := c.Name

	html, err := fetch.Text(ctx, e.Fetcher, wiki.ArticleURL(e.BaseURL, c.ArticleTitle()))
	if err != nil {
		return c, fmt.Errorf("抓取条目 %q 失败：%w", c.ArticleTitle(), err)
	}
	doc, err := extract.Parse(html)
	if err != nil {
		return c, err
	}

	if code, ok := ann.Code(name); ok {
		c.Code = code
	} else if c.Code == "" {
		if code, ok := (extract.ISOCode{}).Extract(doc); ok {
			c.Code = code
		}
	}

	if continent, region, ok := ann.ContinentOf(name); ok {
		c.Continent, c.Region = continent, region
	}

	if ev, ok := ann.Created(name); ok {
		c.Created = ev
	}
	if ev, ok := ann.Dissolved(name); ok {
		c.Dissolved = ev
	}
	if ev, ok := ann.Independence(name); ok {
		c.Independence = ev
	}

	for _, r := range ann.DependencyRows() {
		switch {
		case slices.Contains(r.Governors, name):
			c.Dependencies = domain.AppendUnique(c.Dependencies, r.Governed...)
		case slices.Contains(r.Governed, name):
			c.Dependency = domain.AppendUnique(c.Dependency, r.Governors...)
		}
	}
	for _, r := range ann.DisputeRows() {
		switch {
		case slices.Contains(r.Governors, name):
			c.Disputes = domain.AppendUnique(c.Disputes, r.Governed...)
		case slices.Contains(r.Governed, name):
			c.Disputed = domain.AppendUnique(c.Disputed, r.Governors...)
		}
	}

	if ann.IsException(c.Code) {
		c.Exception = true
	}

	flagURL, err := e.flagURL(ctx, name, doc)
	if err != nil {
		return c, err
	}
	c.FlagURL = flagURL

	if v, ok := ann.GoogleName(name); ok {
		c.GoogleName = v
	}
	if v, ok := ann.IMDBName(name); ok {
		c.IMDBName = v
	}
	if langs := ann.LanguagesOf(name); len(langs) > 0 {
		c.Languages = langs
	}

	e.Geo.Apply(&c)
	return c, nil
}

// flagURL 先确定国旗文件页（注解优先，其次信息框/页面链接），再从文件页取原图 URL。
// 找不到文件页或原图链接时返回空串（缺失，不是错误）。
func (e Enricher) flagURL(ctx context.Context, name string, article *goquery.Document) (string, error) {
	title := ""
	if file, ok := e.Annotation.FlagFile(name); ok {
		title = flagFileTitle(file)
	} else if t, ok := (extract.FlagFile{}).Extract(article); ok {
		title = t
	}
	if title == "" {
		return "", nil
	}

	html, err := fetch.Text(ctx, e.Fetcher, wiki.ArticleURL(e.BaseURL, title))
	if err != nil {
		return "", fmt.Errorf("抓取国旗文件页 %q 失败：%w", title, err)
	}
	doc, err := extract.Parse(html)
	if err != nil {
		return "", err
	}
	u, ok := (extract.FullImageURL{}).Extract(doc)
	if !ok {
		slog.Warn("flag image link not found", "country", name, "file", title)
		return "", nil
	}
	return u, nil
}

// ResolveIndependence 是第二遍：有 created 且不是依附地区的国家，
// 若其前身（created.country[0]）是依附地区，则 independence = {前身的宗主, created.date}。
// 前身不在列表中时跳过。
func ResolveIndependence(cs []domain.Country) {
	idx := domain.IndexByName(cs)
	for i := range cs {
		c := &cs[i]
		if c.Created == nil || c.IsDependent() || len(c.Created.Country) == 0 {
			continue
		}
		j, ok := idx[c.Created.Country[0]]
		if !ok {
			slog.Debug("predecessor not found", "country", c.Name, "predecessor", c.Created.Country[0])
			continue
		}
		if !cs[j].IsDependent() {
			continue
		}
		c.Independence = &domain.Event{
			Country: append([]string(nil), cs[j].Dependency...),
			Date:    c.Created.Date,
		}
	}
}

func flagFileTitle(file string) string {
	if !strings.HasSuffix(file, ".png") {
		file += ".svg"
	}
	return "File:" + file
}
