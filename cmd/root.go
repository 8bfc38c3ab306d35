// Package cmd 提供 loccat 的命令行入口与子命令编排。
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"loccat/internal/config"
	"loccat/internal/languages"
	"loccat/internal/report"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// BuildInfo 由 main 包在构建时注入。
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// app 保存所有子命令共享的依赖。
// 每次 Execute 都创建新的 viper 实例，不依赖全局状态。
type app struct {
	registry *languages.Registry
	viper    *viper.Viper
	logger   *slog.Logger
}

// Execute 组装根命令并执行。收到中断信号时取消正在进行的扫描。
func Execute(info BuildInfo) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd(info, languages.NewRegistry())
	return rootCmd.ExecuteContext(ctx)
}

// newRootCmd 创建根命令并注册全部子命令。
func newRootCmd(info BuildInfo, registry *languages.Registry) *cobra.Command {
	application := &app{
		registry: registry,
		viper:    viper.New(),
		logger:   slog.Default(),
	}

	rootCmd := &cobra.Command{
		Use:   "loccat",
		Short: "按 Blank/Legal/Comment/Doc/Test/Wrap/Code 分类统计源码行数",
		Long: "loccat 逐行将 C++、Python、CMake、GLSL、Qt 样式表源码归入七个互斥的分类，\n" +
			"支持当前工作树统计、逐行解释，以及沿 git 第一父提交的历史统计。",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "配置文件路径（默认查找 ./.loccat.yaml 与 $HOME/.loccat.yaml）")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "输出调试日志")
	rootCmd.PersistentFlags().String("color", config.DefaultColor, "彩色输出: auto, yes 或 no")

	rootCmd.AddCommand(newVersionCmd(info))
	rootCmd.AddCommand(newLanguageCmd(registry))
	rootCmd.AddCommand(newCountCmd(application))
	rootCmd.AddCommand(newHistoryCmd(application))
	rootCmd.AddCommand(newExplainCmd(application))

	return rootCmd
}

// initConfig 设置配置文件查找路径、环境变量前缀与默认值。
func (a *app) initConfig(cmd *cobra.Command) {
	v := a.viper

	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".loccat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix("LOCCAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("color", config.DefaultColor)
	v.SetDefault("cache-backend", config.DefaultCacheBackend)
	v.SetDefault("cache-db-connect", "")
	v.SetDefault("commits", 0)
}

// loadConfig 合并默认值、配置文件、环境变量与命令行参数，校验后返回最终配置，
// 并据此初始化日志级别与颜色开关。
func (a *app) loadConfig(cmd *cobra.Command, command config.Command) (*config.Config, error) {
	a.initConfig(cmd)

	if err := a.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := a.viper.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	var raw config.RawInput
	if err := a.viper.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg, err := config.Process(&raw, command)
	if err != nil {
		return nil, err
	}

	color.NoColor = !cfg.UseColor
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if used := a.viper.ConfigFileUsed(); used != "" {
		a.logger.Debug("config file loaded", slog.String("path", used))
	}
	return cfg, nil
}

// newLogger 创建写到 stderr 的文本日志，verbose 时输出 Debug 级别。
func newLogger(writer io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level}))
}

var warningColor = color.New(color.FgYellow, color.Bold)

// printWarning 输出面向用户的警告，不影响命令结果。
func printWarning(writer io.Writer, format string, args ...any) {
	_, _ = warningColor.Fprint(writer, "warning: ")
	_, _ = fmt.Fprintf(writer, format+"\n", args...)
}

// writeWithFile 将输出写到 path（为空时写到 fallback），并保证文件被关闭。
func writeWithFile(cmd *cobra.Command, path string, write func(io.Writer) error) (err error) {
	writer, closeOutput, err := report.OpenOutput(path, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeOutput(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := write(writer); err != nil {
		return err
	}
	if path != "" {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	}
	return nil
}

// rootArg 返回可选的位置参数，缺省为当前目录。
func rootArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "."
}
