// Package extract 把页面上的单个 HTML 模式隔离成窄规则。
//
// 约束：
// - 规则是纯函数（只依赖输入文档）
// - 没匹配到是“缺失”，不是错误
// - 页面结构变化只需改对应规则，不影响 Harvester/Enricher
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/oxgeo/internal/domain"
	"github.com/John-Robertt/oxgeo/internal/wiki"
)

// Rule 从文档中提取单个字段。
type Rule interface {
	Extract(doc *goquery.Document) (string, bool)
}

// ListRule 从列表页提取候选国家。
type ListRule interface {
	Candidates(doc *goquery.Document) []domain.Candidate
}

// Parse 把 HTML 文本解析为文档。
func Parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// reservedMarker 之后是 ISO 3166-1 alpha-2 页面里“曾经保留”的 code，不属于国家列表。
const reservedMarker = "The following alpha-2 codes were previously exceptionally reserved"

// CutReserved 截掉 alpha-2 页面中 reservedMarker 之后的内容。
func CutReserved(html string) string {
	before, _, _ := strings.Cut(html, reservedMarker)
	return before
}

var (
	formerCodeRE = regexp.MustCompile(`^[A-Z]{4}$`)
	alpha2RE     = regexp.MustCompile(`^[A-Z]{2}$`)
)

// FormerCodes 提取 ISO 3166-3 页面：id 为 4 位大写字母的单元格，取其后第一个条目链接。
type FormerCodes struct{}

func (FormerCodes) Candidates(doc *goquery.Document) []domain.Candidate {
	var out []domain.Candidate
	doc.Find("td[id]").Each(func(_ int, td *goquery.Selection) {
		id, _ := td.Attr("id")
		if !formerCodeRE.MatchString(id) {
			return
		}
		if title, ok := firstArticle(td.AddSelection(td.NextAll())); ok {
			out = append(out, domain.Candidate{Code: id, Title: title})
		}
	})
	return out
}

// Alpha2Codes 提取 ISO 3166-1 alpha-2 表格：首列是两位 code，下一列的第一个条目链接是国家。
type Alpha2Codes struct{}

func (Alpha2Codes) Candidates(doc *goquery.Document) []domain.Candidate {
	var out []domain.Candidate
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() < 2 {
			return
		}
		code := strings.TrimSpace(cells.First().Find("tt, span.monospaced").First().Text())
		if !alpha2RE.MatchString(code) {
			return
		}
		if title, ok := firstArticle(cells.Eq(1)); ok {
			out = append(out, domain.Candidate{Code: code, Title: title})
		}
	})
	return out
}

// SovereignStates 提取主权国家列表：紧跟在 span.flagicon 之后的条目链接。
type SovereignStates struct{}

func (SovereignStates) Candidates(doc *goquery.Document) []domain.Candidate {
	var out []domain.Candidate
	doc.Find("span.flagicon + a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if title, ok := wiki.TitleFromHref(href); ok && strings.HasPrefix(href, "/wiki/") {
			out = append(out, domain.Candidate{Title: title})
		}
	})
	return out
}

var (
	subdivisionRE = regexp.MustCompile(`^/wiki/ISO_3166-2:(\w{2})$`)
	ccTLDRE       = regexp.MustCompile(`^/wiki/\.(\w{2})$`)
)

// ISOCode 从条目页提取两位 code：优先 ISO 3166-2 链接，回退国家顶级域名链接；结果大写。
type ISOCode struct{}

func (ISOCode) Extract(doc *goquery.Document) (string, bool) {
	for _, re := range []*regexp.Regexp{subdivisionRE, ccTLDRE} {
		if m, ok := firstHrefMatch(doc, re); ok {
			return strings.ToUpper(m), true
		}
	}
	return "", false
}

var flagFileRE = regexp.MustCompile(`^File:Flag_.*\.svg$`)

// FlagFile 从条目页提取国旗文件页标题（URL 形态，带 "File:" 前缀）。
// 优先信息框里的国旗图；回退页面中第一个 File:Flag_*.svg 链接。
type FlagFile struct{}

func (FlagFile) Extract(doc *goquery.Document) (string, bool) {
	if title, ok := fileTitle(doc.Find(`td[style*="width:58%"] a[href]`).First()); ok {
		return title, true
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if title, ok := fileTitle(a); ok && flagFileRE.MatchString(title) {
			found = title
			return false
		}
		return true
	})
	return found, found != ""
}

// FullImageURL 从文件页提取原图 URL；协议相对地址补全为 https。
type FullImageURL struct{}

func (FullImageURL) Extract(doc *goquery.Document) (string, bool) {
	href, ok := doc.Find("div#file.fullImageLink a").First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return "", false
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	return href, true
}

// IMDBCountry 是 IMDB 国家列表中的一项（Code 已大写）。
type IMDBCountry struct {
	Code string
	Name string
}

// IMDBCountries 提取 IMDB 国家列表：/country/<code> 链接。
type IMDBCountries struct{}

func (IMDBCountries) Entries(doc *goquery.Document) []IMDBCountry {
	var out []IMDBCountry
	doc.Find(`a[href^="/country/"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		code := strings.Trim(strings.TrimPrefix(href, "/country/"), "/")
		name := strings.TrimSpace(a.Text())
		if code == "" || name == "" {
			return
		}
		out = append(out, IMDBCountry{Code: strings.ToUpper(code), Name: name})
	})
	return out
}

var languageSuffixRE = regexp.MustCompile(`( languages| Sign Language)$`)

// IMDBLanguages 提取 IMDB 语言列表：/language/<code> 链接的文本，去掉语族/手语后缀。
type IMDBLanguages struct{}

func (IMDBLanguages) Names(doc *goquery.Document) []string {
	var out []string
	doc.Find(`a[href^="/language/"]`).Each(func(_ int, a *goquery.Selection) {
		name := languageSuffixRE.ReplaceAllString(strings.TrimSpace(a.Text()), "")
		if name != "" {
			out = append(out, name)
		}
	})
	return out
}

// firstArticle 返回 sel 内（文档顺序）第一个 /wiki/ 链接的标题。
func firstArticle(sel *goquery.Selection) (string, bool) {
	var title string
	sel.Find(`a[href^="/wiki/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		t, ok := wiki.TitleFromHref(href)
		if ok {
			title = t
		}
		return !ok
	})
	return title, title != ""
}

func firstHrefMatch(doc *goquery.Document, re *regexp.Regexp) (string, bool) {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if m := re.FindStringSubmatch(href); m != nil {
			found = m[1]
			return false
		}
		return true
	})
	return found, found != ""
}

func fileTitle(a *goquery.Selection) (string, bool) {
	href, ok := a.Attr("href")
	if !ok {
		return "", false
	}
	title, ok := wiki.TitleFromHref(href)
	if !ok || !strings.HasPrefix(title, "File:") {
		return "", false
	}
	return title, true
}
