// Package report 提供 loccat 的输出能力。
// 支持原始文本摘要、表格、CSV、JSON 以及历史统计的 Parquet 导出。
// 该层只负责格式化，不做任何分类或统计。
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"loccat/internal/model"
)

// PrintJSON 把扫描结果按易读 JSON 输出到任意 writer。
func PrintJSON(writer io.Writer, result model.ScanResult) error {
	return writeJSON(writer, result)
}

// PrintHistoryJSON 把历史快照列表输出为 JSON 数组。
func PrintHistoryJSON(writer io.Writer, snapshots []model.Snapshot) error {
	if snapshots == nil {
		snapshots = []model.Snapshot{}
	}
	return writeJSON(writer, snapshots)
}

func writeJSON(writer io.Writer, value any) error {
	content, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	content = append(content, '\n')

	if _, err := writer.Write(content); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// OpenOutput 返回输出目标。path 为空时直接使用 fallback（通常是命令的标准输出），
// 否则创建文件，父目录不存在时会自动创建。返回的 close 函数总是可以安全调用。
func OpenOutput(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}

	directory := filepath.Dir(path)
	if directory != "." && directory != "" {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return file, file.Close, nil
}
