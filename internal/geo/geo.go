// Package geo 加载按 code 索引的地理指标表（面积、中心点、包围盒）。
package geo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/John-Robertt/oxgeo/internal/domain"
)

// Row 是地理表中的一行。缺失的指标保持 nil。
type Row struct {
	Code  string   `json:"code"`
	Area  *float64 `json:"area"`
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	South *float64 `json:"south"`
	West  *float64 `json:"west"`
	North *float64 `json:"north"`
	East  *float64 `json:"east"`
}

// Bounds 返回包围盒；west > east 表示跨越 180° 经线。
// 四个边界有任一缺失时 ok=false。
func (r Row) Bounds() (s2.Rect, bool) {
	if r.South == nil || r.West == nil || r.North == nil || r.East == nil {
		return s2.EmptyRect(), false
	}
	lat := r1.Interval{Lo: radians(*r.South), Hi: radians(*r.North)}
	lng := s1.IntervalFromEndpoints(radians(*r.West), radians(*r.East))
	return s2.Rect{Lat: lat, Lng: lng}, true
}

// Centre 返回中心点；lat/lng 缺失时 ok=false。
func (r Row) Centre() (s2.LatLng, bool) {
	if r.Lat == nil || r.Lng == nil {
		return s2.LatLng{}, false
	}
	return s2.LatLngFromDegrees(*r.Lat, *r.Lng), true
}

// Table 是 code -> Row。
type Table map[string]Row

// Load 读取地理表（JSON 数组）。中心点落在自身包围盒之外的行只记 warning，不拒绝。
func Load(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (Table, error) {
	var rows []Row
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("地理表解析失败：%w", err)
	}

	t := make(Table, len(rows))
	for _, r := range rows {
		if r.Code == "" {
			continue
		}
		if rect, ok := r.Bounds(); ok {
			if c, ok := r.Centre(); ok && !rect.ContainsLatLng(c) {
				slog.Warn("geo centre outside bounds", "code", r.Code, "lat", *r.Lat, "lng", *r.Lng)
			}
		}
		t[r.Code] = r
	}
	return t, nil
}

// Apply 按 code 把指标复制到国家上；没有 code 或表中没有该 code 时不做任何事。
func (t Table) Apply(c *domain.Country) {
	if c == nil || c.Code == "" {
		return
	}
	r, ok := t[c.Code]
	if !ok {
		return
	}
	c.Area = clone(r.Area)
	c.Lat = clone(r.Lat)
	c.Lng = clone(r.Lng)
	c.South = clone(r.South)
	c.West = clone(r.West)
	c.North = clone(r.North)
	c.East = clone(r.East)
}

func clone(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
