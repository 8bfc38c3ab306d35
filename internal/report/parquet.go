package report

import (
	"fmt"
	"io"

	"loccat/internal/model"

	"github.com/parquet-go/parquet-go"
)

// HistoryRow 是历史统计 Parquet 文件中的一行：一个提交中的一种语言。
type HistoryRow struct {
	Commit   string `parquet:"commit,snappy"`
	Date     string `parquet:"date,snappy"`
	Language string `parquet:"language,snappy"`
	Total    int64  `parquet:"total,snappy"`
	Blank    int64  `parquet:"blank,snappy"`
	Legal    int64  `parquet:"legal,snappy"`
	Comment  int64  `parquet:"comment,snappy"`
	Doc      int64  `parquet:"doc,snappy"`
	Test     int64  `parquet:"test,snappy"`
	Wrap     int64  `parquet:"wrap,snappy"`
	Code     int64  `parquet:"code,snappy"`
}

// HistoryRows 把快照展开为 (提交, 语言) 行，顺序为快照顺序、再按语言报表顺序。
func HistoryRows(snapshots []model.Snapshot) []HistoryRow {
	rows := make([]HistoryRow, 0, len(snapshots)*model.NumLanguages)
	for _, snapshot := range snapshots {
		counts := snapshot.Counts
		if counts == nil {
			counts = model.NewLineCounts()
		}
		for _, language := range model.Languages() {
			values := counts.ByLanguage(language)
			rows = append(rows, HistoryRow{
				Commit:   snapshot.Commit,
				Date:     snapshot.Date,
				Language: language.String(),
				Total:    values.Total(),
				Blank:    values[model.Blank],
				Legal:    values[model.Legal],
				Comment:  values[model.Comment],
				Doc:      values[model.Doc],
				Test:     values[model.Test],
				Wrap:     values[model.Wrap],
				Code:     values[model.Code],
			})
		}
	}
	return rows
}

// WriteHistoryParquet 将历史快照写成 Parquet，schema 由 HistoryRow 的 tag 推导。
func WriteHistoryParquet(output io.Writer, snapshots []model.Snapshot) error {
	writer := parquet.NewGenericWriter[HistoryRow](output)

	if _, err := writer.Write(HistoryRows(snapshots)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
