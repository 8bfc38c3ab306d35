// main.go 是 loccat 的程序入口。
// 该文件仅负责注入构建信息并执行 Cobra 根命令，
// 让业务逻辑保持在 cmd/internal 目录中，便于测试和扩展。
package main

import (
	"fmt"
	"os"

	"loccat/cmd"
)

// 构建信息默认值。
// 发布时可以通过 -ldflags "-X main.version=vX.Y.Z -X main.commit=... -X main.date=..." 覆盖。
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	info := cmd.BuildInfo{Version: version, Commit: commit, Date: date}
	if err := cmd.Execute(info); err != nil {
		fmt.Fprintf(os.Stderr, "loccat error: %v\n", err)
		os.Exit(1)
	}
}
