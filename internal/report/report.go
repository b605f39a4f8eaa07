// Package report 负责输出文件：countries.json 以及其它 JSON 产物。
package report

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/John-Robertt/oxgeo/internal/domain"
	"github.com/John-Robertt/oxgeo/internal/infra/fsx"
)

const (
	CountriesFile     = "countries.json"
	IMDBCountriesFile = "imdbCountries.json"
	IMDBLanguagesFile = "imdbLanguages.json"
)

// Dir 返回 JSON 产物目录（<root>/json）。
func Dir(root string) string { return filepath.Join(root, "json") }

// WriteCountries 把国家列表写到 <root>/json/countries.json（原子覆盖）。
func WriteCountries(root string, cs []domain.Country) error {
	if cs == nil {
		cs = []domain.Country{}
	}
	return WriteJSON(Dir(root), CountriesFile, cs)
}

// WriteJSON 以 4 空格缩进写出 v，不转义 HTML 字符，末尾带换行。
// key 顺序：struct 按字段声明顺序（已是字典序），map 由 encoding/json 排序。
func WriteJSON(dir, name string, v any) error {
	b, err := Marshal(v)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(dir, name, b)
}

// Marshal 返回与 WriteJSON 相同格式的字节。
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode 把 v 以统一格式写到 w（stdout 上的 summary 也走这里）。
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}
