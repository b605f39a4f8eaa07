package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/oxgeo/internal/app/run"
	"github.com/John-Robertt/oxgeo/internal/config"
	"github.com/John-Robertt/oxgeo/internal/domain"
)

func TestProgressUI_PhaseLines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	p.OnStart(config.EffectiveConfig{Cache: true, CacheDir: "/tmp/c", Output: "/tmp/out"})
	p.OnPhaseDone(run.PhaseHarvest, map[string]any{"candidates": 2}, time.Second)
	p.OnCountryDone(1, 2, domain.Country{Name: "France"}, time.Millisecond)
	p.OnCountryDone(2, 2, domain.Country{Name: "Germany"}, time.Millisecond)
	p.OnPhaseDone(run.PhaseEnrich, map[string]any{"countries": 2}, 1500*time.Millisecond)
	p.OnPhaseDone(run.PhaseFlags, map[string]any{"fetched": 3, "written": 2, "unchanged": 1, "linked": 7}, 0)
	p.OnPhaseDone(run.PhaseIMDB, map[string]any{"new_countries": 1}, 0)

	out := buf.String()
	for _, want := range []string{
		"oxgeo run (cache)",
		"  cache: /tmp/c",
		"收集: candidates=2 (1.0s)",
		"补全: countries=2 (1.5s)",
		"国旗: fetched=3 written=2 unchanged=1 linked=7 (0.0s)",
		"IMDB: new_countries=1 new_languages=0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("期望输出包含 %q，实际=\n%s", want, out)
		}
	}
	if p.bar != nil {
		t.Fatalf("补全阶段结束后进度条应已关闭")
	}
}

func TestIntField(t *testing.T) {
	fields := map[string]any{"a": 3, "b": int64(4), "c": "x"}
	if intField(fields, "a") != 3 || intField(fields, "b") != 4 {
		t.Fatalf("数值字段读取不一致")
	}
	if intField(fields, "c") != 0 || intField(nil, "a") != 0 {
		t.Fatalf("非数值或缺失字段应为 0")
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(3723 * time.Second); got != "01:02:03" {
		t.Fatalf("期望 01:02:03，实际=%q", got)
	}
	if got := formatShortDuration(-time.Second); got != "0.0s" {
		t.Fatalf("负数应归零，实际=%q", got)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn", "json")
	l.Info("hidden")
	l.Warn("shown", "k", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("warn 级别不应输出 info，实际=%q", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("期望 JSON 输出，实际=%q", out)
	}
	if parseLevel("debug") != slog.LevelDebug || parseLevel("") != slog.LevelInfo {
		t.Fatalf("level 解析不一致")
	}
}
