package report

import (
	"encoding/csv"
	"io"

	"loccat/internal/model"
)

// historyDateColumn 是历史 CSV 的第一列。
const historyDateColumn = "Commit date/time"

// countsHeader 返回不含日期列的表头：
// Total、七个分类，然后每种语言依次是 "<语言> (Total)" 与 "<语言> (<分类>)"。
func countsHeader() []string {
	header := make([]string, 0, (model.NumLanguages+1)*(model.NumCategories+1))
	header = append(header, countHeaders()...)
	for _, language := range model.Languages() {
		name := language.String()
		header = append(header, name+" (Total)")
		for _, category := range model.Categories() {
			header = append(header, name+" ("+category.String()+")")
		}
	}
	return header
}

func countsRecord(counts *model.LineCounts) []string {
	if counts == nil {
		counts = model.NewLineCounts()
	}

	record := make([]string, 0, (model.NumLanguages+1)*(model.NumCategories+1))
	record = append(record, countCells(counts.Totals())...)
	for _, language := range model.Languages() {
		record = append(record, countCells(counts.ByLanguage(language))...)
	}
	return record
}

// HistoryHeader 返回历史 CSV 的表头。
func HistoryHeader() []string {
	return append([]string{historyDateColumn}, countsHeader()...)
}

// HistoryRecord 返回某个快照对应的一行。
func HistoryRecord(date string, counts *model.LineCounts) []string {
	return append([]string{date}, countsRecord(counts)...)
}

// HistoryCSV 逐个快照写出历史 CSV，每写一行就刷新一次，
// 这样长时间运行的历史统计可以边算边看。
type HistoryCSV struct {
	writer      *csv.Writer
	wroteHeader bool
}

// NewHistoryCSV 创建历史 CSV 输出器。
func NewHistoryCSV(writer io.Writer) *HistoryCSV {
	return &HistoryCSV{writer: csv.NewWriter(writer)}
}

// Write 写出一个快照，第一次调用时先写表头。
func (h *HistoryCSV) Write(snapshot model.Snapshot) error {
	if err := h.writeHeader(); err != nil {
		return err
	}
	if err := h.writer.Write(HistoryRecord(snapshot.Date, snapshot.Counts)); err != nil {
		return err
	}
	h.writer.Flush()
	return h.writer.Error()
}

// Close 保证即使没有任何快照也会输出表头。
func (h *HistoryCSV) Close() error {
	if err := h.writeHeader(); err != nil {
		return err
	}
	h.writer.Flush()
	return h.writer.Error()
}

func (h *HistoryCSV) writeHeader() error {
	if h.wroteHeader {
		return nil
	}
	h.wroteHeader = true
	return h.writer.Write(HistoryHeader())
}

// WriteHistoryCSV 一次性写出全部快照。
func WriteHistoryCSV(writer io.Writer, snapshots []model.Snapshot) error {
	output := NewHistoryCSV(writer)
	for _, snapshot := range snapshots {
		if err := output.Write(snapshot); err != nil {
			return err
		}
	}
	return output.Close()
}

// PrintCSV 以历史 CSV 的列布局输出单个快照，不含日期列。
func PrintCSV(writer io.Writer, counts *model.LineCounts) error {
	w := csv.NewWriter(writer)
	if err := w.Write(countsHeader()); err != nil {
		return err
	}
	if err := w.Write(countsRecord(counts)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
