package cmd

import (
	"io"

	"loccat/internal/config"
	"loccat/internal/report"
	"loccat/internal/scanner"

	"github.com/spf13/cobra"
)

// addLayoutFlags 注册 count / history 共用的目录布局参数。
func addLayoutFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("subtrees", nil, "要遍历的子目录（相对根目录），默认遍历整个根目录")
	cmd.Flags().StringSlice("root-files", nil, "单独统计的根目录文件，缺失时报错")
}

// newCountCmd 创建 count 子命令。
// 示例：
//
//	loccat count .
//	loccat count ~/vgc --subtrees apps,cmake,libs --root-files CMakeLists.txt
//	loccat count . --output table --by-file
func newCountCmd(a *app) *cobra.Command {
	countCmd := &cobra.Command{
		Use:   "count [root]",
		Short: "统计工作树中每种语言、每个分类的行数",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, config.CountCommand)
			if err != nil {
				return err
			}
			if cfg.ByFile && (cfg.Output == config.TextOut || cfg.Output == config.CSVOut) {
				printWarning(cmd.ErrOrStderr(), "--by-file has no effect with --output %s", cfg.Output)
			}

			service := scanner.NewService(a.registry, a.logger)
			result, err := service.Scan(cmd.Context(), rootArg(args), cfg.Layout)
			if err != nil {
				return err
			}

			return writeWithFile(cmd, cfg.OutputFile, func(writer io.Writer) error {
				switch cfg.Output {
				case config.TableOut:
					return report.PrintTable(writer, result, report.TableOptions{
						ByFile:   cfg.ByFile,
						UseColor: cfg.UseColor,
					})
				case config.CSVOut:
					return report.PrintCSV(writer, result.Counts)
				case config.JSONOut:
					if !cfg.ByFile {
						result.Files = nil
					}
					return report.PrintJSON(writer, result)
				default:
					return report.PrintSummary(writer, result.Counts)
				}
			})
		},
	}

	addLayoutFlags(countCmd)
	countCmd.Flags().StringP("output", "o", "", "输出格式: text（默认）, table, csv 或 json")
	countCmd.Flags().String("output-file", "", "将结果写入文件而不是标准输出")
	countCmd.Flags().Bool("by-file", false, "table/json 输出中附带逐文件明细")

	return countCmd
}
