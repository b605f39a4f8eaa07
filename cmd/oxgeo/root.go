package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/oxgeo/internal/app/run"
	"github.com/John-Robertt/oxgeo/internal/config"
	"github.com/John-Robertt/oxgeo/internal/report"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

// exitError 携带退出码；cobra 自身返回的其它错误都视为用法错误。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func execute(args []string, cwd string, stdout, stderr io.Writer) int {
	root := newRootCmd(cwd, stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			fmt.Fprintf(stderr, "错误：%v\n", ee.err)
			return ee.code
		}
		fmt.Fprintf(stderr, "参数错误：%v\n\n%s", err, root.UsageString())
		return exitUsage
	}
	return exitOK
}

func newRootCmd(cwd string, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "oxgeo",
		Short: "oxgeo 聚合国家数据（Wikipedia + IMDB）",
		Long: `oxgeo 从 Wikipedia 列表页收集国家，逐条补全字段，落盘国旗，
并输出 json/countries.json、IMDB 映射表以及 stdout 上的 JSON summary。

配置优先级（高到低）：
  1. CLI 参数（--cache）
  2. 环境变量（OXGEO_*，例如 paths.output -> OXGEO_PATHS_OUTPUT）
  3. 配置文件（./oxgeo.yaml 或 --config 指定）
  4. 内置默认值`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(newRunCmd(cwd, stdout, stderr), newVersionCmd(stdout))
	return root
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "oxgeo %s\n", Version)
		},
	}
}

func newRunCmd(cwd string, stdout, stderr io.Writer) *cobra.Command {
	var (
		cfgFile  string
		useCache bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "运行整条流水线",
		Long: `按固定顺序串行执行：历史事件 -> 注解 -> 地理表 -> 收集候选 -> 逐条补全
-> 独立关系 -> 国旗 -> countries.json -> IMDB 交叉比对。

任一抓取失败都会终止 run（退出码 1）。注解文件解析失败时把原始内容写到 paths.debug。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := config.LoadEffective(cwd, config.CLIArgs{
				ConfigPath: cfgFile,
				Cache:      useCache,
				CacheSet:   cmd.Flags().Changed("cache"),
			})
			if err != nil {
				return &exitError{code: exitFatal, err: err}
			}
			slog.SetDefault(newLogger(stderr, eff.LogLevel, eff.LogFormat))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			var obs run.Observer
			if isTTY(stderr) {
				obs = newProgressUI(stderr)
			}

			r, err := run.Execute(ctx, eff, run.Deps{Observer: obs})
			if err != nil {
				slog.Error("run failed", "stage", run.Stage(err), "err", err)
				return &exitError{code: exitFatal, err: err}
			}
			if err := report.Encode(stdout, r); err != nil {
				return &exitError{code: exitFatal, err: err}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "配置文件（默认 ./oxgeo.yaml，可选）")
	cmd.Flags().BoolVar(&useCache, "cache", false, "使用本地缓存（未命中时抓取并回填）；默认全部直连网络")
	return cmd
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
