// Command oxgeo 从 Wikipedia 与 IMDB 聚合国家数据，输出 countries.json、国旗文件与 summary。
package main

import (
	"os"
)

// Version 由构建参数注入。
var Version = "dev"

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		os.Stderr.WriteString("读取当前目录失败：" + err.Error() + "\n")
		os.Exit(1)
	}
	os.Exit(execute(os.Args[1:], cwd, os.Stdout, os.Stderr))
}
