package cmd

import (
	"loccat/internal/languages"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// newLanguageCmd 创建 language 子命令。
// 命令用于展示已识别的语言以及对应的文件选择规则（后缀或精确文件名）。
func newLanguageCmd(registry *languages.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "language",
		Short: "展示已识别语言及文件选择规则",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header([]string{"Language", "Files"})

			data := make([][]string, 0)
			for _, item := range registry.Languages() {
				data = append(data, []string{item.Name, item.Describe()})
			}

			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		},
	}
}
