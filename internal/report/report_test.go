package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/oxgeo/internal/domain"
)

func TestWriteCountries_Format(t *testing.T) {
	root := t.TempDir()
	zero := 0.0
	cs := []domain.Country{
		{Code: "CI", Name: "Côte d'Ivoire", Lat: &zero, FlagURL: "https://upload.test/a.svg?x=1&y=<2>"},
		{Name: "Nameless"},
	}
	require.NoError(t, WriteCountries(root, cs))

	b, err := os.ReadFile(filepath.Join(root, "json", CountriesFile))
	require.NoError(t, err)
	s := string(b)

	assert.True(t, strings.HasSuffix(s, "]\n"), "末尾应有换行")
	assert.Contains(t, s, "\n    {\n        \"code\": \"CI\"", "4 空格缩进")
	assert.Contains(t, s, "Côte d'Ivoire", "非 ASCII 原样输出")
	assert.Contains(t, s, "&y=<2>", "不转义 HTML 字符")
	assert.Contains(t, s, `"lat": 0`)
	assert.Less(t, strings.Index(s, `"flagURL"`), strings.Index(s, `"lat"`), "key 按字典序")

	var back []domain.Country
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Len(t, back, 2)
}

func TestWriteCountries_EmptyIsArray(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, WriteCountries(root, nil))
	b, err := os.ReadFile(filepath.Join(root, "json", CountriesFile))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(b))
}

func TestMarshal_MapKeysSorted(t *testing.T) {
	b, err := Marshal(map[string]string{"b": "", "a": ""})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"a\": \"\",\n    \"b\": \"\"\n}\n", string(b))
}

func TestMarshal_ReportSummary(t *testing.T) {
	r := domain.NewReport()
	r.Tally([]domain.Country{{Name: "X"}})
	b, err := Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"current independent": 1`)
	assert.Contains(t, string(b), `"no code": [`)
}
