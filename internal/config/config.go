package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是 cwd 下的默认配置文件名（可选）。
	FileName = "oxgeo.yaml"
	// EnvPrefix 是环境变量前缀：paths.output -> OXGEO_PATHS_OUTPUT。
	EnvPrefix = "OXGEO"

	DefaultWikipediaBaseURL = "https://en.wikipedia.org/wiki/"
	DefaultIMDBBaseURL      = "https://www.imdb.com/"
	DefaultTimeout          = 30 * time.Second
	// MaxRetry 是 http.retry_max 的上限；默认 0（不重试）。
	MaxRetry = 10
)

// CLIArgs 是 CLI 暴露的入口，保留“是否显式指定”的信息（--cache=false 必须能覆盖 cache: true）。
type CLIArgs struct {
	ConfigPath string

	Cache    bool
	CacheSet bool
}

// FileConfig 对应 oxgeo.yaml 的结构。
type FileConfig struct {
	Cache     bool          `mapstructure:"cache"`
	Paths     PathsConfig   `mapstructure:"paths"`
	Wikipedia BaseURLConfig `mapstructure:"wikipedia"`
	IMDB      BaseURLConfig `mapstructure:"imdb"`
	HTTP      HTTPConfig    `mapstructure:"http"`
	Log       LogConfig     `mapstructure:"log"`
}

type PathsConfig struct {
	Annotations string `mapstructure:"annotations"`
	Geo         string `mapstructure:"geo"`
	Events      string `mapstructure:"events"`
	Output      string `mapstructure:"output"`
	Cache       string `mapstructure:"cache"`
	Debug       string `mapstructure:"debug"`
}

type BaseURLConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type HTTPConfig struct {
	ProxyURL string        `mapstructure:"proxy_url"`
	RetryMax int           `mapstructure:"retry_max"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EffectiveConfig 是合并并规范化后的最终配置；路径均为绝对路径。
type EffectiveConfig struct {
	// Cache=true 时整个 run 只读写本地缓存（未命中才走网络并回填）；false 时全部直连网络。
	Cache bool

	Annotations string
	Geo         string
	Events      string
	Output      string
	CacheDir    string
	Debug       string

	WikipediaBaseURL string
	IMDBBaseURL      string

	ProxyURL string
	RetryMax int
	Timeout  time.Duration

	LogLevel  string
	LogFormat string

	// ConfigFile 是实际读取的配置文件；未读取时为空。
	ConfigFile string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Defaults 返回内置默认值（目录布局以 cwd 为根）。
func Defaults() FileConfig {
	return FileConfig{
		Paths: PathsConfig{
			Annotations: "yaml/countries.yaml",
			Geo:         "json/Ox.Geo.json",
			Events:      "txt/countries.txt",
			Output:      ".",
			Cache:       ".cache",
			Debug:       "yaml/debug.yaml",
		},
		Wikipedia: BaseURLConfig{BaseURL: DefaultWikipediaBaseURL},
		IMDB:      BaseURLConfig{BaseURL: DefaultIMDBBaseURL},
		HTTP:      HTTPConfig{Timeout: DefaultTimeout},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// LoadEffective 读取配置并与 CLI 参数合并。
//
// 发现规则：
// 1) --config 显式给出：文件必须存在
// 2) 否则尝试 <cwd>/oxgeo.yaml（可选）
//
// 覆盖优先级：CLI > 环境变量（OXGEO_*）> 配置文件 > 默认值。
// 相对路径以 cwd 为基准。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v, Defaults())

	cfgPath := ""
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		if _, err := os.Stat(cfgPath); err != nil {
			if os.IsNotExist(err) {
				return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
			}
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	} else if p := filepath.Join(cwdAbs, FileName); fileExists(p) {
		cfgPath = p
	}

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}

	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	return merge(cwdAbs, cli, fc, cfgPath)
}

func setDefaults(v *viper.Viper, d FileConfig) {
	v.SetDefault("cache", d.Cache)
	v.SetDefault("paths.annotations", d.Paths.Annotations)
	v.SetDefault("paths.geo", d.Paths.Geo)
	v.SetDefault("paths.events", d.Paths.Events)
	v.SetDefault("paths.output", d.Paths.Output)
	v.SetDefault("paths.cache", d.Paths.Cache)
	v.SetDefault("paths.debug", d.Paths.Debug)
	v.SetDefault("wikipedia.base_url", d.Wikipedia.BaseURL)
	v.SetDefault("imdb.base_url", d.IMDB.BaseURL)
	v.SetDefault("http.proxy_url", d.HTTP.ProxyURL)
	v.SetDefault("http.retry_max", d.HTTP.RetryMax)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func merge(cwd string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(format string, a ...any) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, a...)}
	}

	cache := fc.Cache
	if cli.CacheSet {
		cache = cli.Cache
	}

	paths := map[string]string{
		"paths.annotations": fc.Paths.Annotations,
		"paths.geo":         fc.Paths.Geo,
		"paths.events":      fc.Paths.Events,
		"paths.output":      fc.Paths.Output,
		"paths.cache":       fc.Paths.Cache,
		"paths.debug":       fc.Paths.Debug,
	}
	for k, p := range paths {
		if strings.TrimSpace(p) == "" {
			return EffectiveConfig{}, invalid("%s 不能为空", k)
		}
	}

	wikiBase, err := baseURL("wikipedia.base_url", fc.Wikipedia.BaseURL)
	if err != nil {
		return EffectiveConfig{}, invalid("%v", err)
	}
	imdbBase, err := baseURL("imdb.base_url", fc.IMDB.BaseURL)
	if err != nil {
		return EffectiveConfig{}, invalid("%v", err)
	}

	proxyURL := strings.TrimSpace(fc.HTTP.ProxyURL)
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return EffectiveConfig{}, invalid("http.proxy_url 无效：%w", err)
		}
	}

	if fc.HTTP.RetryMax < 0 || fc.HTTP.RetryMax > MaxRetry {
		return EffectiveConfig{}, invalid("http.retry_max 必须在 [0, %d] 之间，实际是 %d", MaxRetry, fc.HTTP.RetryMax)
	}
	timeout := fc.HTTP.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	level := strings.ToLower(strings.TrimSpace(fc.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return EffectiveConfig{}, invalid("log.level 只能是 debug/info/warn/error，实际是 %q", fc.Log.Level)
	}
	format := strings.ToLower(strings.TrimSpace(fc.Log.Format))
	switch format {
	case "text", "json":
	default:
		return EffectiveConfig{}, invalid("log.format 只能是 text 或 json，实际是 %q", fc.Log.Format)
	}

	return EffectiveConfig{
		Cache:            cache,
		Annotations:      absCleanFrom(cwd, fc.Paths.Annotations),
		Geo:              absCleanFrom(cwd, fc.Paths.Geo),
		Events:           absCleanFrom(cwd, fc.Paths.Events),
		Output:           absCleanFrom(cwd, fc.Paths.Output),
		CacheDir:         absCleanFrom(cwd, fc.Paths.Cache),
		Debug:            absCleanFrom(cwd, fc.Paths.Debug),
		WikipediaBaseURL: wikiBase,
		IMDBBaseURL:      imdbBase,
		ProxyURL:         proxyURL,
		RetryMax:         fc.HTTP.RetryMax,
		Timeout:          timeout,
		LogLevel:         level,
		LogFormat:        format,
		ConfigFile:       cfgPath,
	}, nil
}

// baseURL 校验 http/https 前缀并补齐末尾的 "/"。
func baseURL(key, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%s 无效：%q", key, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%s 必须是 http/https：%q", key, raw)
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
