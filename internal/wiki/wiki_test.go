package wiki

import "testing"

func TestEncodeDecode_RoundTrip(t *testing.T) {
	titles := []string{
		"France",
		"Bosnia and Herzegovina",
		"Côte d'Ivoire",
		"São Tomé and Príncipe",
		"Georgia (country)",
		"Saint Helena, Ascension and Tristan da Cunha",
		"List of sovereign states",
		"File:Flag of Nepal.svg",
	}
	for _, title := range titles {
		if got := DecodeTitle(EncodeTitle(title)); got != title {
			t.Fatalf("往返不一致：%q -> %q -> %q", title, EncodeTitle(title), got)
		}
	}
}

func TestDecodeTitle_PercentEncoding(t *testing.T) {
	if got := DecodeTitle("C%C3%B4te_d%27Ivoire"); got != "Côte d'Ivoire" {
		t.Fatalf("期望 Côte d'Ivoire，实际 %q", got)
	}
	// 非法转义保留原样。
	if got := DecodeTitle("100%_sure"); got != "100% sure" {
		t.Fatalf("期望保留原样，实际 %q", got)
	}
}

func TestArticleURL(t *testing.T) {
	if got := ArticleURL("", "ISO 3166-1 alpha-2"); got != "https://en.wikipedia.org/wiki/ISO_3166-1_alpha-2" {
		t.Fatalf("URL 不符合预期：%q", got)
	}
	if got := ArticleURL("http://127.0.0.1:8080/wiki", "France"); got != "http://127.0.0.1:8080/wiki/France" {
		t.Fatalf("URL 不符合预期：%q", got)
	}
}

func TestTitleFromHref(t *testing.T) {
	cases := map[string]string{
		"/wiki/Georgia_(country)":                           "Georgia_(country)",
		"/wiki/France#History":                              "France",
		"/w/index.php?title=File:Flag_of_France.svg&page=1": "File:Flag_of_France.svg",
	}
	for href, want := range cases {
		got, ok := TitleFromHref(href)
		if !ok || got != want {
			t.Fatalf("%q：期望 %q，实际 %q ok=%v", href, want, got, ok)
		}
	}
	if _, ok := TitleFromHref("https://example.test/"); ok {
		t.Fatalf("外链不应被识别为条目")
	}
}
