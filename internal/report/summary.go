package report

import (
	"fmt"
	"io"

	"loccat/internal/model"
)

// PrintSummary 输出控制台文本摘要：先是全部语言的合计，再按语言逐块输出。
//
//	Total Line Counts: 1234
//	  Blank:   100
//	  Legal:   20
//	  ...
//
//	C++ Line Counts: 1000
//	  ...
func PrintSummary(writer io.Writer, counts *model.LineCounts) error {
	if counts == nil {
		counts = model.NewLineCounts()
	}

	if err := printSummaryBlock(writer, "Total", counts.Totals()); err != nil {
		return err
	}
	for _, language := range model.Languages() {
		if _, err := fmt.Fprintln(writer); err != nil {
			return err
		}
		if err := printSummaryBlock(writer, language.String(), counts.ByLanguage(language)); err != nil {
			return err
		}
	}
	return nil
}

func printSummaryBlock(writer io.Writer, title string, counts model.CategoryCounts) error {
	if _, err := fmt.Fprintf(writer, "%s Line Counts: %d\n", title, counts.Total()); err != nil {
		return err
	}
	for _, category := range model.Categories() {
		// 标签统一补齐到 "Comment:" 的宽度。
		if _, err := fmt.Fprintf(writer, "  %-8s %d\n", category.String()+":", counts[category]); err != nil {
			return err
		}
	}
	return nil
}
