package domain

import (
	"encoding/json"
)

const (
	BucketCurrentDependent     = "current dependent"
	BucketCurrentDisputed      = "current disputed"
	BucketCurrentException     = "current exception"
	BucketCurrentIndependent   = "current independent"
	BucketDissolvedDependent   = "dissolved dependent"
	BucketDissolvedDisputed    = "dissolved disputed"
	BucketDissolvedException   = "dissolved exception"
	BucketDissolvedIndependent = "dissolved independent"
)

// Report 是一次 run 的汇总（stdout JSON）。
//
// 字段声明顺序即 JSON key 顺序，保持字典序。
type Report struct {
	CurrentDependent     int `json:"current dependent"`
	CurrentDisputed      int `json:"current disputed"`
	CurrentException     int `json:"current exception"`
	CurrentIndependent   int `json:"current independent"`
	DissolvedDependent   int `json:"dissolved dependent"`
	DissolvedDisputed    int `json:"dissolved disputed"`
	DissolvedException   int `json:"dissolved exception"`
	DissolvedIndependent int `json:"dissolved independent"`

	NewCountries []string `json:"new countries"`
	NewLanguages []string `json:"new languages"`

	NoCode      []string `json:"no code"`
	NoContinent []string `json:"no continent"`
	NoFlagURL   []string `json:"no flagURL"`

	Total int `json:"total"`
}

// NewReport 返回所有列表都已初始化的空报告（JSON 中输出 [] 而不是 null）。
func NewReport() Report {
	return Report{
		NewCountries: []string{},
		NewLanguages: []string{},
		NoCode:       []string{},
		NoContinent:  []string{},
		NoFlagURL:    []string{},
	}
}

// Bucket 把国家归入 8 个互斥桶之一。
// 优先级：exception > disputed > dependent > independent。
func Bucket(c Country) string {
	dissolved := c.IsDissolved()
	switch {
	case c.Exception:
		if dissolved {
			return BucketDissolvedException
		}
		return BucketCurrentException
	case c.IsDisputed():
		if dissolved {
			return BucketDissolvedDisputed
		}
		return BucketCurrentDisputed
	case c.IsDependent():
		if dissolved {
			return BucketDissolvedDependent
		}
		return BucketCurrentDependent
	default:
		if dissolved {
			return BucketDissolvedIndependent
		}
		return BucketCurrentIndependent
	}
}

// Tally 由国家列表计算 total / 缺失字段 / 分桶统计。
// 每个国家恰好落入一个桶，因此 8 个桶之和等于 Total。
func (r *Report) Tally(cs []Country) {
	r.Total = len(cs)
	r.NoCode = []string{}
	r.NoContinent = []string{}
	r.NoFlagURL = []string{}
	r.CurrentDependent, r.CurrentDisputed, r.CurrentException, r.CurrentIndependent = 0, 0, 0, 0
	r.DissolvedDependent, r.DissolvedDisputed, r.DissolvedException, r.DissolvedIndependent = 0, 0, 0, 0

	for _, c := range cs {
		if c.Code == "" {
			r.NoCode = append(r.NoCode, c.Name)
		}
		if c.Continent == "" {
			r.NoContinent = append(r.NoContinent, c.Name)
		}
		if c.FlagURL == "" {
			r.NoFlagURL = append(r.NoFlagURL, c.Name)
		}
		*r.bucket(Bucket(c))++
	}
}

// BucketSum 返回 8 个桶的总和。
func (r Report) BucketSum() int {
	return r.CurrentDependent + r.CurrentDisputed + r.CurrentException + r.CurrentIndependent +
		r.DissolvedDependent + r.DissolvedDisputed + r.DissolvedException + r.DissolvedIndependent
}

func (r *Report) bucket(name string) *int {
	switch name {
	case BucketCurrentDependent:
		return &r.CurrentDependent
	case BucketCurrentDisputed:
		return &r.CurrentDisputed
	case BucketCurrentException:
		return &r.CurrentException
	case BucketDissolvedDependent:
		return &r.DissolvedDependent
	case BucketDissolvedDisputed:
		return &r.DissolvedDisputed
	case BucketDissolvedException:
		return &r.DissolvedException
	case BucketDissolvedIndependent:
		return &r.DissolvedIndependent
	default:
		return &r.CurrentIndependent
	}
}

// MarshalJSON 把 nil 列表规范为 []，保证输出结构稳定。
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	a := Alias(r)
	for _, p := range []*[]string{&a.NewCountries, &a.NewLanguages, &a.NoCode, &a.NoContinent, &a.NoFlagURL} {
		if *p == nil {
			*p = []string{}
		}
	}
	return json.Marshal(a)
}
