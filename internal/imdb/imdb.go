// Package imdb 把国家/语言与 IMDB 的列表页交叉比对，输出映射表并记录未知条目。
package imdb

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/oxgeo/internal/annotation"
	"github.com/John-Robertt/oxgeo/internal/domain"
	"github.com/John-Robertt/oxgeo/internal/extract"
	"github.com/John-Robertt/oxgeo/internal/fetch"
	"github.com/John-Robertt/oxgeo/internal/report"
)

const DefaultBaseURL = "https://www.imdb.com/"

type Emitter struct {
	Fetcher    fetch.Fetcher
	Annotation *annotation.Set
	BaseURL    string
	Root       string
}

// Countries 写出 json/imdbCountries.json（国家名 -> IMDB 名），返回 IMDB 上出现但对不上的国家名。
//
// 映射从 annotation.imdb 的拷贝开始；IMDB 条目按 code 命中且名字不同时补充映射，
// 若国家没有 imdbName 或与之不同，同时记为新国家。
func (e Emitter) Countries(ctx context.Context, cs []domain.Country) ([]string, error) {
	doc, err := e.page(ctx, "country/")
	if err != nil {
		return nil, err
	}

	names := e.Annotation.IMDBNames()
	newCountries := []string{}
	for _, entry := range (extract.IMDBCountries{}).Entries(doc) {
		isNew := true
		for _, c := range cs {
			if entry.Name == c.Name || (c.IMDBName != "" && entry.Name == c.IMDBName) {
				isNew = false
			}
			if c.HasCode() && entry.Code == c.Code {
				isNew = false
				if entry.Name != c.Name {
					names[c.Name] = entry.Name
					if c.IMDBName == "" || entry.Name != c.IMDBName {
						newCountries = append(newCountries, entry.Name)
					}
				}
			}
			if !isNew {
				break
			}
		}
		if isNew {
			slog.Info("new imdb country", "code", entry.Code, "name", entry.Name)
			newCountries = append(newCountries, entry.Name)
		}
	}

	if err := report.WriteJSON(report.Dir(e.Root), report.IMDBCountriesFile, names); err != nil {
		return nil, err
	}
	return newCountries, nil
}

// Languages 写出 json/imdbLanguages.json（语言 -> ""），返回不在 annotation.languages 中的语言。
func (e Emitter) Languages(ctx context.Context) ([]string, error) {
	doc, err := e.page(ctx, "language/")
	if err != nil {
		return nil, err
	}

	langs := map[string]string{}
	newLanguages := []string{}
	for _, name := range (extract.IMDBLanguages{}).Names(doc) {
		langs[name] = ""
		if !e.Annotation.HasLanguage(name) {
			newLanguages = append(newLanguages, name)
		}
	}

	if err := report.WriteJSON(report.Dir(e.Root), report.IMDBLanguagesFile, langs); err != nil {
		return nil, err
	}
	return newLanguages, nil
}

func (e Emitter) page(ctx context.Context, path string) (*goquery.Document, error) {
	if e.Fetcher == nil || e.Annotation == nil {
		return nil, fmt.Errorf("imdb emitter 未初始化")
	}
	base := e.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	html, err := fetch.Text(ctx, e.Fetcher, base+path)
	if err != nil {
		return nil, fmt.Errorf("抓取 IMDB %s 失败：%w", path, err)
	}
	return extract.Parse(html)
}
