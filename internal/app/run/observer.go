package run

import (
	"time"

	"github.com/John-Robertt/oxgeo/internal/config"
	"github.com/John-Robertt/oxgeo/internal/domain"
)

// Observer 用于把“运行进度/阶段/国家结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）
// - 流水线是串行的，事件按发生顺序同步调用
type Observer interface {
	// OnStart 在 Execute 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用（用于打印阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnCountryDone 在单个国家补全完成时调用；idx 从 1 开始。
	OnCountryDone(idx, total int, c domain.Country, dur time.Duration)
}

// 阶段名（OnPhaseDone 的 name）。
const (
	PhaseEvents     = "events"
	PhaseAnnotation = "annotation"
	PhaseGeo        = "geo"
	PhaseHarvest    = "harvest"
	PhaseEnrich     = "enrich"
	PhaseFlags      = "flags"
	PhaseReport     = "report"
	PhaseIMDB       = "imdb"
)

type nopObserver struct{}

func (nopObserver) OnStart(config.EffectiveConfig)                        {}
func (nopObserver) OnPhaseDone(string, map[string]any, time.Duration)     {}
func (nopObserver) OnCountryDone(int, int, domain.Country, time.Duration) {}
