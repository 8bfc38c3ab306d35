package cmd

import (
	"io"

	"loccat/internal/config"
	"loccat/internal/history"
	"loccat/internal/model"
	"loccat/internal/report"
	"loccat/internal/scanner"

	"github.com/spf13/cobra"
)

// newHistoryCmd 创建 history 子命令。
// 示例：
//
//	loccat history ~/vgc --commits 100 > history.csv
//	loccat history . --output parquet --output-file history.parquet
func newHistoryCmd(a *app) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history [repo]",
		Short: "沿第一父提交统计历史快照",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, config.HistoryCommand)
			if err != nil {
				return err
			}

			var store history.Store
			cacheStore, err := history.NewCacheStore(cfg.CacheBackend, cfg.CacheDBConnect)
			if err != nil {
				printWarning(cmd.ErrOrStderr(), "snapshot cache disabled: %v", err)
			} else {
				store = cacheStore
				defer func() { _ = cacheStore.Close() }()
			}

			runner := history.NewRunner(
				history.NewLocalGitClient(),
				scanner.NewService(a.registry, a.logger),
				store,
				cfg.Layout,
				a.logger,
			)
			repo := rootArg(args)

			return writeWithFile(cmd, cfg.OutputFile, func(writer io.Writer) error {
				if cfg.Output == config.CSVOut {
					// CSV 逐行输出，长时间运行时可以实时看到进度。
					output := report.NewHistoryCSV(writer)
					if err := runner.Run(cmd.Context(), repo, cfg.Commits, output.Write); err != nil {
						return err
					}
					return output.Close()
				}

				snapshots := make([]model.Snapshot, 0)
				err := runner.Run(cmd.Context(), repo, cfg.Commits, func(snapshot model.Snapshot) error {
					snapshots = append(snapshots, snapshot)
					return nil
				})
				if err != nil {
					return err
				}

				if cfg.Output == config.ParquetOut {
					return report.WriteHistoryParquet(writer, snapshots)
				}
				return report.PrintHistoryJSON(writer, snapshots)
			})
		},
	}

	addLayoutFlags(historyCmd)
	historyCmd.Flags().StringP("output", "o", "", "输出格式: csv（默认）, json 或 parquet")
	historyCmd.Flags().String("output-file", "", "将结果写入文件，parquet 格式必须指定")
	historyCmd.Flags().IntP("commits", "n", 0, "最多统计的提交数，0 表示全部")
	historyCmd.Flags().String("cache-backend", config.DefaultCacheBackend, "快照缓存后端: sqlite, mysql, postgresql 或 none")
	historyCmd.Flags().String("cache-db-connect", "", "缓存数据库连接串；sqlite 时为文件路径，默认 ~/.loccat_cache.db")

	return historyCmd
}
