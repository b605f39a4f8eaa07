package flags

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/oxgeo/internal/annotation"
	"github.com/John-Robertt/oxgeo/internal/domain"
)

type images struct {
	body  map[string][]byte
	calls map[string]int
}

func (f *images) Fetch(_ context.Context, u string) ([]byte, error) {
	b, ok := f.body[u]
	if !ok {
		return nil, fmt.Errorf("unexpected url %s", u)
	}
	f.calls[u]++
	return b, nil
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const (
	urlNorway = "https://upload.test/Flag_of_Norway.svg"
	urlFrance = "https://upload.test/Flag_of_France.svg"
)

func svgCountries() []domain.Country {
	return []domain.Country{
		{Code: "BV", Name: "Bouvet Island", FlagURL: urlNorway},
		{Code: "FR", Name: "France", FlagURL: urlFrance},
		{Code: "MQ", Name: "Martinique", FlagURL: urlFrance, Dependency: []string{"France"}},
		{Code: "NO", Name: "Norway", FlagURL: urlNorway},
		{Name: "Nameless", FlagURL: urlFrance},
		{Code: "ZZ", Name: "No Flag"},
	}
}

func TestMaterialize_OwnersAliasesAndIdempotence(t *testing.T) {
	root := t.TempDir()
	f := &images{
		body:  map[string][]byte{urlNorway: []byte("<svg>no</svg>"), urlFrance: []byte("<svg>fr</svg>")},
		calls: map[string]int{},
	}
	ann := annotation.New(annotation.Document{FlagLink: []string{"Bouvet Island"}})
	m := Materializer{Fetcher: f, Root: root, Annotation: ann}

	res, err := m.Materialize(context.Background(), svgCountries())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"BV": "NO", "MQ": "FR"}, res.Owners, "flag_link 国家不应持有实体文件")
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, f.calls[urlNorway])

	b, err := os.ReadFile(filepath.Join(root, "svg", "flags", "NO.svg"))
	require.NoError(t, err)
	assert.Equal(t, "<svg>no</svg>", string(b))

	target, err := os.Readlink(filepath.Join(root, "svg", "flags", "MQ.svg"))
	require.NoError(t, err)
	assert.Equal(t, "FR.svg", target)
	target, err = os.Readlink(filepath.Join(root, "svg", "icons", "BV.svg"))
	require.NoError(t, err)
	assert.Equal(t, "NO.svg", target)
	target, err = os.Readlink(filepath.Join(root, "png", "icons", "16", "MQ.png"))
	require.NoError(t, err)
	assert.Equal(t, "FR.png", target)

	// 2 个 alias × (flags + icons + 5 个图标尺寸)
	assert.Equal(t, 14, res.Linked)

	again, err := m.Materialize(context.Background(), svgCountries())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Written, "输入不变时第二次不应写入")
	assert.Equal(t, 0, again.Linked)
	assert.Equal(t, 2, again.Unchanged)
}

func TestMaterialize_ChangedImageIsRewritten(t *testing.T) {
	root := t.TempDir()
	f := &images{body: map[string][]byte{urlFrance: []byte("v1")}, calls: map[string]int{}}
	m := Materializer{Fetcher: f, Root: root}
	cs := []domain.Country{{Code: "FR", Name: "France", FlagURL: urlFrance}}

	_, err := m.Materialize(context.Background(), cs)
	require.NoError(t, err)

	f.body[urlFrance] = []byte("v2")
	res, err := m.Materialize(context.Background(), cs)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)

	b, err := os.ReadFile(filepath.Join(root, "svg", "flags", "FR.svg"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(b))
}

func TestMaterialize_RasterOwnerGetsIconTiers(t *testing.T) {
	root := t.TempDir()
	const u = "https://upload.test/Flag_of_Nepal.png"
	f := &images{body: map[string][]byte{u: tinyPNG(t)}, calls: map[string]int{}}
	m := Materializer{Fetcher: f, Root: root}

	res, err := m.Materialize(context.Background(), []domain.Country{{Code: "NP", Name: "Nepal", FlagURL: u}})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Written, "国旗 + 5 个图标尺寸")

	b, err := os.ReadFile(filepath.Join(root, "png", "icons", "64", "NP.png"))
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 64, cfg.Height)
}

func TestMaterialize_FetchErrorAborts(t *testing.T) {
	m := Materializer{Fetcher: &images{body: map[string][]byte{}, calls: map[string]int{}}, Root: t.TempDir()}
	_, err := m.Materialize(context.Background(), []domain.Country{{Code: "FR", Name: "France", FlagURL: urlFrance}})
	assert.Error(t, err)
}
