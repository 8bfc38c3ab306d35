// Package config 校验并转换来自配置文件、环境变量和命令行的原始参数。
// 原始值由 viper 合并后反序列化到 RawInput，再由 Process 生成最终的 Config。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"loccat/internal/history"
	"loccat/internal/scanner"

	"golang.org/x/term"
)

var (
	// ErrInvalidOutput 表示输出格式不被当前命令支持。
	ErrInvalidOutput = errors.New("invalid output format")
	// ErrInvalidColor 表示 color 取值无法识别。
	ErrInvalidColor = errors.New("invalid color value")
	// ErrInvalidLayout 表示 subtrees / root-files 中有越出扫描根目录的路径。
	ErrInvalidLayout = errors.New("invalid layout")
	// ErrInvalidCommits 表示 commits 为负数。
	ErrInvalidCommits = errors.New("invalid commit count")
	// ErrOutputFileRequired 表示该输出格式必须写入文件。
	ErrOutputFileRequired = errors.New("output file required")
)

// Command 区分不同子命令的默认值与可用输出格式。
type Command int

const (
	// CountCommand 对应 count 子命令。
	CountCommand Command = iota
	// HistoryCommand 对应 history 子命令。
	HistoryCommand
)

// OutputFormat 是输出格式名称。
type OutputFormat string

const (
	TextOut    OutputFormat = "text"
	TableOut   OutputFormat = "table"
	CSVOut     OutputFormat = "csv"
	JSONOut    OutputFormat = "json"
	ParquetOut OutputFormat = "parquet"
)

// 各命令支持的输出格式，第一个为默认值。
var commandOutputs = map[Command][]OutputFormat{
	CountCommand:   {TextOut, TableOut, CSVOut, JSONOut},
	HistoryCommand: {CSVOut, JSONOut, ParquetOut},
}

// 配置默认值，cmd 层通过 viper.SetDefault 注册。
const (
	DefaultColor        = "auto"
	DefaultCacheBackend = string(history.SQLiteBackend)
)

// RawInput 保存未经校验的配置，字段名与配置键一一对应。
type RawInput struct {
	Subtrees       []string `mapstructure:"subtrees"`
	RootFiles      []string `mapstructure:"root-files"`
	Output         string   `mapstructure:"output"`
	OutputFile     string   `mapstructure:"output-file"`
	ByFile         bool     `mapstructure:"by-file"`
	Color          string   `mapstructure:"color"`
	Commits        int      `mapstructure:"commits"`
	CacheBackend   string   `mapstructure:"cache-backend"`
	CacheDBConnect string   `mapstructure:"cache-db-connect"`
	Verbose        bool     `mapstructure:"verbose"`
}

// Config 是校验后的最终配置。
type Config struct {
	Layout         scanner.Layout
	Output         OutputFormat
	OutputFile     string
	ByFile         bool
	UseColor       bool
	Commits        int
	CacheBackend   history.Backend
	CacheDBConnect string
	Verbose        bool
}

// stdoutIsTerminal 用于 color=auto 的判断，测试中可替换。
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Process 校验 raw 并生成 command 对应的 Config。
func Process(raw *RawInput, command Command) (*Config, error) {
	cfg := &Config{
		OutputFile:     strings.TrimSpace(raw.OutputFile),
		ByFile:         raw.ByFile,
		CacheDBConnect: raw.CacheDBConnect,
		Verbose:        raw.Verbose,
	}

	layout, err := processLayout(raw.Subtrees, raw.RootFiles)
	if err != nil {
		return nil, err
	}
	cfg.Layout = layout

	output, err := processOutput(raw.Output, command)
	if err != nil {
		return nil, err
	}
	cfg.Output = output
	if output == ParquetOut && cfg.OutputFile == "" {
		return nil, fmt.Errorf("%w: --output %s needs --output-file", ErrOutputFileRequired, output)
	}

	useColor, err := processColor(raw.Color)
	if err != nil {
		return nil, err
	}
	cfg.UseColor = useColor

	if raw.Commits < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCommits, raw.Commits)
	}
	cfg.Commits = raw.Commits

	backendName := raw.CacheBackend
	if strings.TrimSpace(backendName) == "" {
		backendName = DefaultCacheBackend
	}
	backend, err := history.ParseBackend(backendName)
	if err != nil {
		return nil, err
	}
	cfg.CacheBackend = backend

	return cfg, nil
}

func processOutput(value string, command Command) (OutputFormat, error) {
	allowed := commandOutputs[command]
	name := OutputFormat(strings.ToLower(strings.TrimSpace(value)))
	if name == "" {
		return allowed[0], nil
	}
	for _, item := range allowed {
		if item == name {
			return item, nil
		}
	}

	names := make([]string, 0, len(allowed))
	for _, item := range allowed {
		names = append(names, string(item))
	}
	return "", fmt.Errorf("%w: %q, allowed values: %s", ErrInvalidOutput, value, strings.Join(names, ", "))
}

// processColor 支持 auto 以及 yes/no/true/false/1/0。
func processColor(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return stdoutIsTerminal(), nil
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s (expected auto/yes/no)", ErrInvalidColor, value)
	}
}

// processLayout 清理路径并拒绝绝对路径和 ".." 开头的路径。
// 两个列表都为空时扫描整个根目录。
func processLayout(subtrees []string, rootFiles []string) (scanner.Layout, error) {
	if len(subtrees) == 0 && len(rootFiles) == 0 {
		return scanner.DefaultLayout(), nil
	}

	cleanedSubtrees, err := cleanRelativePaths(subtrees)
	if err != nil {
		return scanner.Layout{}, err
	}
	cleanedFiles, err := cleanRelativePaths(rootFiles)
	if err != nil {
		return scanner.Layout{}, err
	}
	return scanner.Layout{Subtrees: cleanedSubtrees, RootFiles: cleanedFiles}, nil
}

func cleanRelativePaths(paths []string) ([]string, error) {
	cleaned := make([]string, 0, len(paths))
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if filepath.IsAbs(trimmed) {
			return nil, fmt.Errorf("%w: %s must be relative to the root", ErrInvalidLayout, path)
		}
		value := filepath.Clean(filepath.FromSlash(trimmed))
		if value == ".." || strings.HasPrefix(value, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: %s escapes the root", ErrInvalidLayout, path)
		}
		cleaned = append(cleaned, value)
	}
	return cleaned, nil
}
