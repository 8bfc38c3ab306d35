package report

import (
	"io"
	"strconv"

	"loccat/internal/model"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// TableOptions 控制表格输出。
type TableOptions struct {
	// ByFile 为 true 时在语言汇总表之后追加逐文件明细表。
	ByFile bool
	// UseColor 为 true 时为合计行着色。
	UseColor bool
}

var totalColor = color.New(color.FgCyan, color.Bold)

// PrintTable 使用表格展示扫描结果，每种语言一行，最后一行为合计。
func PrintTable(writer io.Writer, result model.ScanResult, options TableOptions) error {
	counts := result.Counts
	if counts == nil {
		counts = model.NewLineCounts()
	}

	filesByLanguage := make(map[model.Language]int, model.NumLanguages)
	for _, file := range result.Files {
		filesByLanguage[file.Language]++
	}

	table := newCountsTable(writer, append([]string{"Language", "Files"}, countHeaders()...))

	data := make([][]string, 0, model.NumLanguages+1)
	for _, language := range model.Languages() {
		row := []string{language.String(), strconv.Itoa(filesByLanguage[language])}
		data = append(data, append(row, countCells(counts.ByLanguage(language))...))
	}

	totalLabel := "TOTAL"
	if options.UseColor {
		totalLabel = totalColor.Sprint(totalLabel)
	}
	totalRow := []string{totalLabel, strconv.Itoa(len(result.Files))}
	data = append(data, append(totalRow, countCells(counts.Totals())...))

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if !options.ByFile {
		return nil
	}
	return printFileTable(writer, result.Files)
}

// printFileTable 输出逐文件明细，顺序与遍历顺序一致。
func printFileTable(writer io.Writer, files []model.FileMetrics) error {
	table := newCountsTable(writer, append([]string{"Path", "Language"}, countHeaders()...))

	data := make([][]string, 0, len(files))
	for _, file := range files {
		row := []string{file.Path, file.Language.String()}
		data = append(data, append(row, countCells(file.Counts)...))
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func newCountsTable(writer io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(writer)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	return table
}

// countHeaders 返回 Total 加七个分类的表头。
func countHeaders() []string {
	headers := make([]string, 0, model.NumCategories+1)
	headers = append(headers, "Total")
	for _, category := range model.Categories() {
		headers = append(headers, category.String())
	}
	return headers
}

func countCells(counts model.CategoryCounts) []string {
	cells := make([]string, 0, model.NumCategories+1)
	cells = append(cells, strconv.FormatInt(counts.Total(), 10))
	for _, category := range model.Categories() {
		cells = append(cells, strconv.FormatInt(counts[category], 10))
	}
	return cells
}
