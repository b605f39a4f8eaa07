package enrich

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/oxgeo/internal/annotation"
	"github.com/John-Robertt/oxgeo/internal/domain"
	"github.com/John-Robertt/oxgeo/internal/geo"
)

const base = "https://wiki.test/wiki/"

type pages map[string]string

func (p pages) Fetch(_ context.Context, u string) ([]byte, error) {
	html, ok := p[u]
	if !ok {
		return nil, fmt.Errorf("unexpected url %s", u)
	}
	return []byte(html), nil
}

func fullImage(href string) string {
	return `<div class="fullImageLink" id="file"><a href="` + href + `">img</a></div>`
}

func float(v float64) *float64 { return &v }

func TestEnrich_AnnotationOverridesExtraction(t *testing.T) {
	p := pages{
		base + "Testland": `<a href="/wiki/ISO_3166-2:ZZ">iso</a>
<table><tr><td style="width:58%; vertical-align:middle;"><a href="/wiki/File:Flag_of_Testland.svg">f</a></td></tr></table>`,
		base + "File:Override.svg": fullImage("//upload.test/Override.svg"),
	}
	doc := annotation.Document{
		Code:         map[string]string{"Testland": "TL"},
		Continents:   map[string]map[string][]string{"Europe": {"Northern Europe": {"Testland"}}},
		Dependencies: map[string][]string{"Testland": {"Islet"}, "Bigland; Testland": {"Rock"}},
		Disputes:     map[string][]string{"Otherland": {"Testland"}},
		Exception:    []string{"TL"},
		Flag:         map[string]string{"Testland": "Override"},
		Google:       map[string]string{"Testland": "Testland (g)"},
		IMDB:         map[string]string{"Testland": "Testland (i)"},
		Languages:    map[string]string{"Zeta": "Testland", "Alpha": "Testland", "Other": "Otherland"},
	}
	ev := domain.NewEvents()
	ev.Created["Testland"] = domain.Event{Country: []string{"Oldland"}, Date: "1990", Created: domain.KindRenamed}

	e := Enricher{
		Fetcher:    p,
		Annotation: annotation.New(doc).WithEvents(ev),
		Geo:        geo.Table{"TL": {Code: "TL", Area: float(10), Lat: float(0)}},
		BaseURL:    base,
	}

	got, err := e.Enrich(context.Background(), domain.Country{Name: "Testland"})
	require.NoError(t, err)

	assert.Equal(t, "TL", got.Code, "注解 code 优先于页面提取")
	assert.Equal(t, "Europe", got.Continent)
	assert.Equal(t, "Northern Europe", got.Region)
	assert.Equal(t, []string{"Rock", "Islet"}, got.Dependencies, "按注解 key 排序后并集")
	assert.Equal(t, []string{"Otherland"}, got.Disputed)
	assert.Empty(t, got.Dependency)
	assert.True(t, got.Exception)
	assert.Equal(t, "https://upload.test/Override.svg", got.FlagURL)
	assert.Equal(t, "Testland (g)", got.GoogleName)
	assert.Equal(t, "Testland (i)", got.IMDBName)
	assert.Equal(t, []string{"Alpha", "Zeta"}, got.Languages)
	require.NotNil(t, got.Created)
	assert.Equal(t, domain.KindRenamed, got.Created.Created)
	require.NotNil(t, got.Lat)
	assert.Equal(t, 0.0, *got.Lat)
}

func TestEnrich_ExtractionFallbacks(t *testing.T) {
	p := pages{
		base + "Georgia_(country)":        `<a href="/wiki/.ge">.ge</a><a href="/wiki/File:Flag_of_Georgia.svg">f</a>`,
		base + "File:Flag_of_Georgia.svg": fullImage("//upload.test/Flag_of_Georgia.svg"),
	}
	e := Enricher{Fetcher: p, Annotation: annotation.New(annotation.Document{}), BaseURL: base}

	got, err := e.Enrich(context.Background(), domain.Country{Name: "Georgia", WikipediaName: "Georgia (country)"})
	require.NoError(t, err)
	assert.Equal(t, "GE", got.Code)
	assert.Equal(t, "https://upload.test/Flag_of_Georgia.svg", got.FlagURL)
	assert.False(t, got.Exception)
	assert.Empty(t, got.Continent)
}

func TestEnrich_KeepsHarvestedCodeAndPNGFlag(t *testing.T) {
	p := pages{
		base + "Nepal":          `<a href="/wiki/ISO_3166-2:XX">x</a>`,
		base + "File:Nepal.png": fullImage("https://upload.test/Nepal.png"),
	}
	ann := annotation.New(annotation.Document{Flag: map[string]string{"Nepal": "Nepal.png"}})
	e := Enricher{Fetcher: p, Annotation: ann, BaseURL: base}

	got, err := e.Enrich(context.Background(), domain.Country{Name: "Nepal", Code: "NP"})
	require.NoError(t, err)
	assert.Equal(t, "NP", got.Code)
	assert.Equal(t, "https://upload.test/Nepal.png", got.FlagURL)
}

func TestEnrich_MissingFlagIsAbsence(t *testing.T) {
	p := pages{
		base + "Nowhere":                 `<a href="/wiki/File:Flag_of_Nowhere.svg">f</a>`,
		base + "File:Flag_of_Nowhere.svg": `<p>no image</p>`,
	}
	e := Enricher{Fetcher: p, Annotation: annotation.New(annotation.Document{}), BaseURL: base}

	got, err := e.Enrich(context.Background(), domain.Country{Name: "Nowhere"})
	require.NoError(t, err)
	assert.Empty(t, got.FlagURL)
	assert.Empty(t, got.Code)
}

type failing struct{}

func (failing) Fetch(context.Context, string) ([]byte, error) { return nil, errors.New("offline") }

func TestEnrich_FetchErrorPropagates(t *testing.T) {
	e := Enricher{Fetcher: failing{}, Annotation: annotation.New(annotation.Document{}), BaseURL: base}
	_, err := e.Enrich(context.Background(), domain.Country{Name: "France"})
	assert.ErrorContains(t, err, "offline")
}

func TestResolveIndependence(t *testing.T) {
	cs := []domain.Country{
		{Name: "Zimbabwe", Created: &domain.Event{Country: []string{"Southern Rhodesia"}, Date: "1980-04-18", Created: domain.KindRenamed}},
		{Name: "Southern Rhodesia", Dependency: []string{"United Kingdom"}},
		{Name: "Sri Lanka", Created: &domain.Event{Country: []string{"Ceylon"}, Date: "1972-05-22"}},
		{Name: "Ceylon"},
		{Name: "Orphan", Created: &domain.Event{Country: []string{"Missing"}, Date: "2000"}},
		{Name: "Dependent", Dependency: []string{"X"}, Created: &domain.Event{Country: []string{"Southern Rhodesia"}, Date: "1"}},
	}
	ResolveIndependence(cs)

	require.NotNil(t, cs[0].Independence)
	assert.Equal(t, domain.Event{Country: []string{"United Kingdom"}, Date: "1980-04-18"}, *cs[0].Independence)
	assert.Nil(t, cs[2].Independence, "前身不是依附地区")
	assert.Nil(t, cs[4].Independence, "前身不存在时跳过")
	assert.Nil(t, cs[5].Independence, "依附地区本身不参与")

	cs[0].Independence.Country[0] = "Mutated"
	assert.Equal(t, "United Kingdom", cs[1].Dependency[0])
}
