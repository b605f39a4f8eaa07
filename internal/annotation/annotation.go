// Package annotation 加载人工维护的修正表（名称、code、依附、争议、国旗、语言等）。
//
// Set 在构造后只读：所有 map 在构造时拷贝，只通过访问器暴露；
// 事件数据通过 WithEvents 折叠进一个新的 Set，而不是就地修改。
package annotation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/oxgeo/internal/domain"
	"github.com/John-Robertt/oxgeo/internal/infra/fsx"
)

// rowSep 是 dependencies/disputes 的 key 中多个治理方之间的分隔符。
const rowSep = "; "

// Document 对应注解文件的结构（YAML；JSON 也是合法 YAML）。
type Document struct {
	Name         map[string]string              `yaml:"name"`
	Wikipedia    []string                       `yaml:"wikipedia"`
	WikipediaURL map[string]string              `yaml:"wikipedia_url"`
	Code         map[string]string              `yaml:"code"`
	Continents   map[string]map[string][]string `yaml:"continents"`
	Dependencies map[string][]string            `yaml:"dependencies"`
	Disputes     map[string][]string            `yaml:"disputes"`
	Exception    []string                       `yaml:"exception"`
	Flag         map[string]string              `yaml:"flag"`
	FlagLink     []string                       `yaml:"flag_link"`
	Google       map[string]string              `yaml:"google"`
	IMDB         map[string]string              `yaml:"imdb"`
	Languages    map[string]string              `yaml:"languages"`
}

// ParseError 表示注解文件无法解析。这是整个 run 的硬前置条件。
// Raw 保留原始内容，用于写出 debug 文件供人工排查。
type ParseError struct {
	Path string
	Raw  []byte
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("注解文件 %q 解析失败：%v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// WriteDebug 把原始内容写到 debug 文件（原子覆盖）。
func (e *ParseError) WriteDebug(path string) error {
	return fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), e.Raw)
}

// Row 是 dependencies/disputes 的一行：Governors 治理 Governed。
type Row struct {
	Governors []string
	Governed  []string
}

type place struct {
	continent string
	region    string
}

// Set 是只读的注解集合。
type Set struct {
	names        map[string]string
	extraTitles  []string
	wikipediaURL map[string]string
	codes        map[string]string
	places       map[string]place
	dependencies []Row
	disputes     []Row
	exceptions   map[string]struct{}
	flags        map[string]string
	flagLinks    map[string]struct{}
	google       map[string]string
	imdb         map[string]string
	languages    map[string]string
	langsByName  map[string][]string

	created      map[string]domain.Event
	dissolved    map[string]domain.Event
	independence map[string]domain.Event
}

// Load 读取并解析注解文件。解析失败返回 *ParseError（携带原始内容）。
func Load(path string) (*Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, b)
}

// Parse 解析注解内容；path 仅用于错误信息。
func Parse(path string, b []byte) (*Set, error) {
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, &ParseError{Path: path, Raw: b, Err: err}
	}
	return New(doc), nil
}

// New 由 Document 构造 Set（拷贝所有输入）。
func New(doc Document) *Set {
	s := &Set{
		names:        copyMap(doc.Name),
		extraTitles:  append([]string(nil), doc.Wikipedia...),
		wikipediaURL: copyMap(doc.WikipediaURL),
		codes:        copyMap(doc.Code),
		places:       map[string]place{},
		dependencies: rows(doc.Dependencies),
		disputes:     rows(doc.Disputes),
		exceptions:   toSet(doc.Exception),
		flags:        copyMap(doc.Flag),
		flagLinks:    toSet(doc.FlagLink),
		google:       copyMap(doc.Google),
		imdb:         copyMap(doc.IMDB),
		languages:    copyMap(doc.Languages),
		langsByName:  map[string][]string{},
		created:      map[string]domain.Event{},
		dissolved:    map[string]domain.Event{},
		independence: map[string]domain.Event{},
	}

	// continents：按 continent/region 排序遍历，保证同名出现在多处时结果稳定（取第一个）。
	for _, continent := range sortedKeys(doc.Continents) {
		regions := doc.Continents[continent]
		for _, region := range sortedKeys(regions) {
			for _, name := range regions[region] {
				if _, ok := s.places[name]; !ok {
					s.places[name] = place{continent: continent, region: region}
				}
			}
		}
	}

	for _, lang := range sortedKeys(doc.Languages) {
		name := doc.Languages[lang]
		s.langsByName[name] = append(s.langsByName[name], lang)
	}
	return s
}

// WithEvents 返回折叠了历史事件的新 Set；接收者保持不变。
func (s *Set) WithEvents(ev domain.Events) *Set {
	c := *s
	c.created = copyEvents(ev.Created)
	c.dissolved = copyEvents(ev.Dissolved)
	c.independence = copyEvents(ev.Independence)
	return &c
}

// DisplayName 返回 wikipedia 标题对应的显示名（annotation.name）。
func (s *Set) DisplayName(title string) (string, bool) {
	v, ok := s.names[title]
	return v, ok
}

func (s *Set) ExtraTitles() []string { return append([]string(nil), s.extraTitles...) }

func (s *Set) WikipediaURL(title string) (string, bool) {
	v, ok := s.wikipediaURL[title]
	return v, ok
}

func (s *Set) Code(name string) (string, bool) {
	v, ok := s.codes[name]
	return v, ok
}

// ContinentOf 返回 name 所在的 continent 与 region。
func (s *Set) ContinentOf(name string) (continent, region string, ok bool) {
	p, ok := s.places[name]
	return p.continent, p.region, ok
}

func (s *Set) DependencyRows() []Row { return cloneRows(s.dependencies) }
func (s *Set) DisputeRows() []Row    { return cloneRows(s.disputes) }

func (s *Set) IsException(code string) bool {
	if code == "" {
		return false
	}
	_, ok := s.exceptions[code]
	return ok
}

// FlagFile 返回 name 的国旗文件名覆盖（不含 "File:" 前缀）。
func (s *Set) FlagFile(name string) (string, bool) {
	v, ok := s.flags[name]
	return v, ok
}

// IsFlagLink 表示该国家的国旗应作为别名（链接）而不是实体文件。
func (s *Set) IsFlagLink(name string) bool {
	_, ok := s.flagLinks[name]
	return ok
}

func (s *Set) GoogleName(name string) (string, bool) {
	v, ok := s.google[name]
	return v, ok
}

func (s *Set) IMDBName(name string) (string, bool) {
	v, ok := s.imdb[name]
	return v, ok
}

// IMDBNames 返回 annotation.imdb 的拷贝（调用方可以自由修改）。
func (s *Set) IMDBNames() map[string]string { return copyMap(s.imdb) }

// LanguagesOf 返回映射到 name 的语言（已排序）。
func (s *Set) LanguagesOf(name string) []string {
	return append([]string(nil), s.langsByName[name]...)
}

func (s *Set) HasLanguage(lang string) bool {
	_, ok := s.languages[lang]
	return ok
}

func (s *Set) Created(name string) (*domain.Event, bool)      { return lookupEvent(s.created, name) }
func (s *Set) Dissolved(name string) (*domain.Event, bool)    { return lookupEvent(s.dissolved, name) }
func (s *Set) Independence(name string) (*domain.Event, bool) { return lookupEvent(s.independence, name) }

func lookupEvent(m map[string]domain.Event, name string) (*domain.Event, bool) {
	e, ok := m[name]
	if !ok {
		return nil, false
	}
	return (&e).Clone(), true
}

func rows(m map[string][]string) []Row {
	out := make([]Row, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, Row{
			Governors: strings.Split(k, rowSep),
			Governed:  append([]string(nil), m[k]...),
		})
	}
	return out
}

func cloneRows(in []Row) []Row {
	out := make([]Row, len(in))
	for i, r := range in {
		out[i] = Row{
			Governors: append([]string(nil), r.Governors...),
			Governed:  append([]string(nil), r.Governed...),
		}
	}
	return out
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyEvents(in map[string]domain.Event) map[string]domain.Event {
	out := make(map[string]domain.Event, len(in))
	for k, v := range in {
		out[k] = *(&v).Clone()
	}
	return out
}

func toSet(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		out[s] = struct{}{}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
