package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/John-Robertt/oxgeo/internal/annotation"
	"github.com/John-Robertt/oxgeo/internal/config"
	"github.com/John-Robertt/oxgeo/internal/domain"
	"github.com/John-Robertt/oxgeo/internal/enrich"
	"github.com/John-Robertt/oxgeo/internal/events"
	"github.com/John-Robertt/oxgeo/internal/fetch"
	"github.com/John-Robertt/oxgeo/internal/flags"
	"github.com/John-Robertt/oxgeo/internal/geo"
	"github.com/John-Robertt/oxgeo/internal/harvest"
	"github.com/John-Robertt/oxgeo/internal/imdb"
	"github.com/John-Robertt/oxgeo/internal/infra/cache"
	"github.com/John-Robertt/oxgeo/internal/infra/httpx"
	"github.com/John-Robertt/oxgeo/internal/report"
)

// StageError 表示某个阶段失败；整个 run 随之终止。
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage=%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Stage 从 error 中提取失败阶段；若不是 *StageError 则返回空串。
func Stage(err error) string {
	var e *StageError
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// Deps 是可注入的依赖；零值表示按配置构造。
type Deps struct {
	// Fetcher 为空时按 eff.Cache 选择网络或缓存实现。
	Fetcher  fetch.Fetcher
	Observer Observer
}

// Execute 按固定顺序串行执行整条流水线，返回 summary。
//
// 任一阶段失败都终止 run；注解文件解析失败时先把原始内容写到 debug 文件，且不写任何国家数据。
func Execute(ctx context.Context, eff config.EffectiveConfig, deps Deps) (domain.Report, error) {
	obs := deps.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	obs.OnStart(eff)

	started := time.Now()
	ev, err := events.ParseFile(eff.Events)
	if err != nil {
		return domain.Report{}, &StageError{Stage: PhaseEvents, Err: err}
	}
	obs.OnPhaseDone(PhaseEvents, map[string]any{
		"created":      len(ev.Created),
		"dissolved":    len(ev.Dissolved),
		"independence": len(ev.Independence),
	}, time.Since(started))

	started = time.Now()
	ann, err := annotation.Load(eff.Annotations)
	if err != nil {
		var pe *annotation.ParseError
		if errors.As(err, &pe) {
			if werr := pe.WriteDebug(eff.Debug); werr != nil {
				slog.Error("write debug dump failed", "path", eff.Debug, "err", werr)
			} else {
				slog.Error("annotation parse error", "debug", eff.Debug)
			}
		}
		return domain.Report{}, &StageError{Stage: PhaseAnnotation, Err: err}
	}
	ann = ann.WithEvents(ev)
	obs.OnPhaseDone(PhaseAnnotation, map[string]any{"path": eff.Annotations}, time.Since(started))

	started = time.Now()
	table, err := geo.Load(eff.Geo)
	if err != nil {
		return domain.Report{}, &StageError{Stage: PhaseGeo, Err: err}
	}
	obs.OnPhaseDone(PhaseGeo, map[string]any{"codes": len(table)}, time.Since(started))

	f := deps.Fetcher
	if f == nil {
		f, err = newFetcher(eff)
		if err != nil {
			return domain.Report{}, &StageError{Stage: PhaseHarvest, Err: err}
		}
	}

	started = time.Now()
	h := harvest.Harvester{Fetcher: f, Annotation: ann, BaseURL: eff.WikipediaBaseURL}
	countries, err := h.Candidates(ctx)
	if err != nil {
		return domain.Report{}, &StageError{Stage: PhaseHarvest, Err: err}
	}
	domain.SortCountries(countries)
	obs.OnPhaseDone(PhaseHarvest, map[string]any{"candidates": len(countries)}, time.Since(started))

	started = time.Now()
	e := enrich.Enricher{Fetcher: f, Annotation: ann, Geo: table, BaseURL: eff.WikipediaBaseURL}
	for i := range countries {
		if err := ctx.Err(); err != nil {
			return domain.Report{}, &StageError{Stage: PhaseEnrich, Err: err}
		}
		oneStarted := time.Now()
		c, err := e.Enrich(ctx, countries[i])
		if err != nil {
			return domain.Report{}, &StageError{Stage: PhaseEnrich, Err: err}
		}
		countries[i] = c
		obs.OnCountryDone(i+1, len(countries), c, time.Since(oneStarted))
	}
	enrich.ResolveIndependence(countries)
	domain.SortCountries(countries)
	obs.OnPhaseDone(PhaseEnrich, map[string]any{"countries": len(countries)}, time.Since(started))

	started = time.Now()
	m := flags.Materializer{Fetcher: f, Root: eff.Output, Annotation: ann}
	fr, err := m.Materialize(ctx, countries)
	if err != nil {
		return domain.Report{}, &StageError{Stage: PhaseFlags, Err: err}
	}
	obs.OnPhaseDone(PhaseFlags, map[string]any{
		"fetched":   fr.Fetched,
		"written":   fr.Written,
		"unchanged": fr.Unchanged,
		"linked":    fr.Linked,
		"aliases":   len(fr.Owners),
	}, time.Since(started))

	started = time.Now()
	if err := report.WriteCountries(eff.Output, countries); err != nil {
		return domain.Report{}, &StageError{Stage: PhaseReport, Err: err}
	}
	r := domain.NewReport()
	r.Tally(countries)
	obs.OnPhaseDone(PhaseReport, map[string]any{"total": r.Total}, time.Since(started))

	started = time.Now()
	x := imdb.Emitter{Fetcher: f, Annotation: ann, BaseURL: eff.IMDBBaseURL, Root: eff.Output}
	if r.NewCountries, err = x.Countries(ctx, countries); err != nil {
		return domain.Report{}, &StageError{Stage: PhaseIMDB, Err: err}
	}
	if r.NewLanguages, err = x.Languages(ctx); err != nil {
		return domain.Report{}, &StageError{Stage: PhaseIMDB, Err: err}
	}
	obs.OnPhaseDone(PhaseIMDB, map[string]any{
		"new_countries": len(r.NewCountries),
		"new_languages": len(r.NewLanguages),
	}, time.Since(started))

	return r, nil
}

func newFetcher(eff config.EffectiveConfig) (fetch.Fetcher, error) {
	c, err := httpx.NewClient(httpx.Options{
		ProxyURL: eff.ProxyURL,
		RetryMax: eff.RetryMax,
		Timeout:  eff.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("http.proxy_url 无效：%w", err)
	}
	mode := fetch.ModeNetwork
	if eff.Cache {
		mode = fetch.ModeCache
	}
	return fetch.New(mode, c, cache.New(eff.CacheDir, false)), nil
}
