package cmd

import (
	"fmt"
	"path/filepath"

	"loccat/internal/config"
	"loccat/internal/model"
	"loccat/internal/scanner"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var categoryColors = map[model.Category]*color.Color{
	model.Blank:   color.New(color.FgHiBlack),
	model.Legal:   color.New(color.FgMagenta),
	model.Comment: color.New(color.FgGreen),
	model.Doc:     color.New(color.FgCyan),
	model.Test:    color.New(color.FgYellow),
	model.Wrap:    color.New(color.FgBlue),
	model.Code:    color.New(color.Reset),
}

// explainOptions 存放 explain 命令的目录标记参数。
type explainOptions struct {
	test bool
	wrap bool
	root string
}

// newExplainCmd 创建 explain 子命令，逐行输出分类结果，便于排查某一行为什么被这样统计。
// 示例：
//
//	loccat explain libs/vgc/core/tests/test_array.cpp --root .
//	loccat explain libs/vgc/core/wraps/module.cpp --wrap
func newExplainCmd(a *app) *cobra.Command {
	var options explainOptions

	explainCmd := &cobra.Command{
		Use:   "explain <file>",
		Short: "逐行显示单个文件的分类",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.loadConfig(cmd, config.CountCommand); err != nil {
				return err
			}

			path := args[0]
			flags := model.DirFlags{Test: options.test, Wrap: options.wrap}
			if options.root != "" {
				replayed, err := replayDirFlags(options.root, path)
				if err != nil {
					return err
				}
				flags.Test = flags.Test || replayed.Test
				flags.Wrap = flags.Wrap || replayed.Wrap
			}

			service := scanner.NewService(a.registry, a.logger)
			language, lines, err := service.ExplainFile(path, flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "%s (%s, test=%t, wrap=%t)\n", path, language, flags.Test, flags.Wrap); err != nil {
				return err
			}
			for _, line := range lines {
				label := categoryColors[line.Category].Sprintf("%-7s", line.Category)
				if _, err := fmt.Fprintf(out, "%6d  %s  %s\n", line.Number, label, line.Text); err != nil {
					return err
				}
			}
			return nil
		},
	}

	explainCmd.Flags().BoolVar(&options.test, "test", false, "按测试目录中的文件分类")
	explainCmd.Flags().BoolVar(&options.wrap, "wrap", false, "按 wraps 目录中的文件分类")
	explainCmd.Flags().StringVar(&options.root, "root", "", "从该根目录推导 test/wrap 标记")

	return explainCmd
}

// replayDirFlags 从 root 开始回放目录上下文，得到 path 所在目录的标记。
func replayDirFlags(root string, path string) (model.DirFlags, error) {
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return model.DirFlags{}, fmt.Errorf("resolve root: %w", err)
	}
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return model.DirFlags{}, fmt.Errorf("resolve file: %w", err)
	}
	return scanner.FlagsForDir(absoluteRoot, filepath.Dir(absolutePath)), nil
}
