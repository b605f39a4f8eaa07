package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"

	"github.com/John-Robertt/oxgeo/internal/app/run"
	"github.com/John-Robertt/oxgeo/internal/config"
	"github.com/John-Robertt/oxgeo/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 把阶段统计写到 stderr；补全阶段用进度条展示。
// stdout 只留给最终的 JSON summary。
type progressUI struct {
	w *syncWriter

	startedAt time.Time
	bar       *pb.ProgressBar
}

// syncWriter 串行化进度条刷新协程与阶段输出的写入。
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: &syncWriter{w: w}}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	p.startedAt = time.Now()

	mode := "network"
	if eff.Cache {
		mode = "cache"
	}
	fmt.Fprintf(p.w, "[%s] oxgeo run (%s)\n", p.startedAt.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	if eff.ConfigFile != "" {
		fmt.Fprintf(p.w, "  config: %s\n", eff.ConfigFile)
	}
	fmt.Fprintf(p.w, "  annotations: %s\n", eff.Annotations)
	fmt.Fprintf(p.w, "  geo: %s\n", eff.Geo)
	fmt.Fprintf(p.w, "  events: %s\n", eff.Events)
	fmt.Fprintf(p.w, "  wikipedia: %s\n", eff.WikipediaBaseURL)
	fmt.Fprintf(p.w, "  imdb: %s\n", eff.IMDBBaseURL)
	if eff.Cache {
		fmt.Fprintf(p.w, "  cache: %s\n", eff.CacheDir)
	}
	fmt.Fprintf(p.w, "  proxy: %s\n", onOff(eff.ProxyURL != ""))
	fmt.Fprintf(p.w, "  retry_max: %d\n", eff.RetryMax)
	fmt.Fprintf(p.w, "输出: %s\n\n", eff.Output)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	switch name {
	case run.PhaseEvents:
		fmt.Fprintf(p.w, "历史事件: created=%d dissolved=%d independence=%d (%s)\n",
			intField(fields, "created"), intField(fields, "dissolved"), intField(fields, "independence"),
			formatShortDuration(dur),
		)
	case run.PhaseAnnotation:
		fmt.Fprintf(p.w, "注解: %v (%s)\n", fields["path"], formatShortDuration(dur))
	case run.PhaseGeo:
		fmt.Fprintf(p.w, "地理表: codes=%s (%s)\n", comma(intField(fields, "codes")), formatShortDuration(dur))
	case run.PhaseHarvest:
		total := intField(fields, "candidates")
		fmt.Fprintf(p.w, "收集: candidates=%s (%s)\n", comma(total), formatShortDuration(dur))
		if total > 0 {
			p.bar = pb.Full.New(total).SetWriter(p.w)
			p.bar.Set("prefix", "补全 ")
			p.bar.Set(pb.CleanOnFinish, true)
			p.bar.Start()
		}
	case run.PhaseEnrich:
		p.finishBar()
		fmt.Fprintf(p.w, "补全: countries=%s (%s)\n", comma(intField(fields, "countries")), formatShortDuration(dur))
	case run.PhaseFlags:
		fmt.Fprintf(p.w, "国旗: fetched=%d written=%d unchanged=%d linked=%d (%s)\n",
			intField(fields, "fetched"), intField(fields, "written"),
			intField(fields, "unchanged"), intField(fields, "linked"),
			formatShortDuration(dur),
		)
	case run.PhaseReport:
		fmt.Fprintf(p.w, "countries.json: total=%s (%s)\n", comma(intField(fields, "total")), formatShortDuration(dur))
	case run.PhaseIMDB:
		fmt.Fprintf(p.w, "IMDB: new_countries=%d new_languages=%d (%s)\n",
			intField(fields, "new_countries"), intField(fields, "new_languages"), formatShortDuration(dur),
		)
		fmt.Fprintf(p.w, "\n完成，用时 %s\n", formatElapsed(time.Since(p.startedAt)))
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnCountryDone(idx, total int, c domain.Country, dur time.Duration) {
	if p.bar == nil {
		return
	}
	p.bar.SetTotal(int64(total))
	p.bar.SetCurrent(int64(idx))
	p.bar.Set("suffix", " "+truncate(c.Name, 40))
}

func (p *progressUI) finishBar() {
	if p.bar == nil {
		return
	}
	p.bar.Finish()
	p.bar = nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func comma(n int) string { return humanize.Comma(int64(n)) }

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}
