package domain

import (
	"sort"
)

// Country 是一条国家记录（最终写入 countries.json 的结构）。
//
// 约束：
// - 字段声明顺序即 JSON key 顺序，必须保持字典序（输出要求 sort_keys）
// - 除 Name 外全部可选；地理指标用指针区分“缺失”与真实的 0
// - Code 在有 code 的记录之间唯一；无 code 的记录排在最后
type Country struct {
	Area          *float64 `json:"area,omitempty"`
	Code          string   `json:"code,omitempty"`
	Continent     string   `json:"continent,omitempty"`
	Created       *Event   `json:"created,omitempty"`
	Dependencies  []string `json:"dependencies,omitempty"`
	Dependency    []string `json:"dependency,omitempty"`
	Disputed      []string `json:"disputed,omitempty"`
	Disputes      []string `json:"disputes,omitempty"`
	Dissolved     *Event   `json:"dissolved,omitempty"`
	East          *float64 `json:"east,omitempty"`
	Exception     bool     `json:"exception,omitempty"`
	FlagURL       string   `json:"flagURL,omitempty"`
	GoogleName    string   `json:"googleName,omitempty"`
	IMDBName      string   `json:"imdbName,omitempty"`
	Independence  *Event   `json:"independence,omitempty"`
	Languages     []string `json:"languages,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
	Name          string   `json:"name"`
	North         *float64 `json:"north,omitempty"`
	Region        string   `json:"region,omitempty"`
	South         *float64 `json:"south,omitempty"`
	West          *float64 `json:"west,omitempty"`
	WikipediaName string   `json:"wikipediaName,omitempty"`
}

func (c Country) HasCode() bool     { return c.Code != "" }
func (c Country) IsDependent() bool { return len(c.Dependency) > 0 }
func (c Country) IsDisputed() bool  { return len(c.Disputed) > 0 }
func (c Country) IsDissolved() bool { return c.Dissolved != nil }

// ArticleTitle 返回抓取条目页时使用的标题：有消歧别名时优先别名。
func (c Country) ArticleTitle() string {
	if c.WikipediaName != "" {
		return c.WikipediaName
	}
	return c.Name
}

// Candidate 是列表页提取出的候选国家（code 可选，Title 为 URL 形态）。
type Candidate struct {
	Code  string
	Title string
}

// SortCountries 稳定排序：有 code 的按 code 升序在前；无 code 的按 name 升序排在最后。
func SortCountries(cs []Country) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		switch {
		case a.HasCode() && b.HasCode():
			return a.Code < b.Code
		case a.HasCode():
			return true
		case b.HasCode():
			return false
		default:
			return a.Name < b.Name
		}
	})
}

// IndexByName 返回 name -> 下标；重名时保留第一次出现的位置。
func IndexByName(cs []Country) map[string]int {
	m := make(map[string]int, len(cs))
	for i := range cs {
		if _, ok := m[cs[i].Name]; !ok {
			m[cs[i].Name] = i
		}
	}
	return m
}

// AppendUnique 把 add 中尚未出现的元素追加到 dst（保持首次出现顺序）。
func AppendUnique(dst []string, add ...string) []string {
	seen := make(map[string]struct{}, len(dst)+len(add))
	for _, s := range dst {
		seen[s] = struct{}{}
	}
	for _, s := range add {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}
