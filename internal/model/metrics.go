// Package model 定义 loccat 的核心数据模型。
// 这些结构会被分类器、扫描器、输出层和历史统计共同使用。
package model

import (
	"encoding/json"
	"fmt"
)

// totalKey 是 JSON 中附带输出的合计字段，反序列化时忽略。
const totalKey = "Total"

// CategoryCounts 表示单个语言（或单个文件）的七个分类计数。
type CategoryCounts [NumCategories]int64

// Total 返回七个分类之和，始终按需计算。
func (c CategoryCounts) Total() int64 {
	var total int64
	for _, value := range c {
		total += value
	}
	return total
}

// Add 将另一个计数叠加到当前对象。
func (c *CategoryCounts) Add(other CategoryCounts) {
	for idx := range c {
		c[idx] += other[idx]
	}
}

// MarshalJSON 以 {"Blank": n, ..., "Total": n} 的形式输出。
func (c CategoryCounts) MarshalJSON() ([]byte, error) {
	out := make(map[string]int64, NumCategories+1)
	for _, category := range Categories() {
		out[category.String()] = c[category]
	}
	out[totalKey] = c.Total()
	return json.Marshal(out)
}

// UnmarshalJSON 读取分类计数，Total 字段由计数推导，因此忽略。
func (c *CategoryCounts) UnmarshalJSON(data []byte) error {
	var in map[string]int64
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var parsed CategoryCounts
	for name, value := range in {
		if name == totalKey {
			continue
		}
		category, err := ParseCategory(name)
		if err != nil {
			return err
		}
		if value < 0 {
			return fmt.Errorf("negative count for %s: %d", name, value)
		}
		parsed[category] = value
	}
	*c = parsed
	return nil
}

// LineCounts 是 (语言, 分类) -> 计数 的聚合器。
//
// 约束说明：
// - 每次扫描创建一个新对象，并显式传递给各个分类器调用
// - 只存储分类计数，语言合计与总计均按需推导，避免不一致
// - 零值可直接使用
type LineCounts struct {
	counts [NumLanguages]CategoryCounts
}

// NewLineCounts 创建空聚合器。
func NewLineCounts() *LineCounts {
	return &LineCounts{}
}

// Record 将指定语言、分类的计数 +1。
func (l *LineCounts) Record(language Language, category Category) {
	l.counts[language][category]++
}

// RecordCounts 将一个文件的分类计数累加到指定语言。
func (l *LineCounts) RecordCounts(language Language, counts CategoryCounts) {
	l.counts[language].Add(counts)
}

// Count 返回单个计数器的值。
func (l *LineCounts) Count(language Language, category Category) int64 {
	return l.counts[language][category]
}

// ByLanguage 返回某个语言的七个分类计数副本。
func (l *LineCounts) ByLanguage(language Language) CategoryCounts {
	return l.counts[language]
}

// Total 返回某个语言的总行数。
func (l *LineCounts) Total(language Language) int64 {
	return l.counts[language].Total()
}

// CategoryTotal 返回某个分类在全部语言上的合计。
func (l *LineCounts) CategoryTotal(category Category) int64 {
	var total int64
	for _, language := range Languages() {
		total += l.counts[language][category]
	}
	return total
}

// Totals 返回按分类汇总后的全语言计数。
func (l *LineCounts) Totals() CategoryCounts {
	var totals CategoryCounts
	for _, language := range Languages() {
		totals.Add(l.counts[language])
	}
	return totals
}

// GrandTotal 返回全部语言、全部分类的总行数。
func (l *LineCounts) GrandTotal() int64 {
	return l.Totals().Total()
}

// Merge 将另一个聚合器的结果叠加进来。
func (l *LineCounts) Merge(other *LineCounts) {
	if other == nil {
		return
	}
	for _, language := range Languages() {
		l.counts[language].Add(other.counts[language])
	}
}

// MarshalJSON 输出 {"C++": {...}, "Python": {...}, ...}，包含全部语言。
func (l *LineCounts) MarshalJSON() ([]byte, error) {
	out := make(map[string]CategoryCounts, NumLanguages)
	for _, language := range Languages() {
		out[language.String()] = l.counts[language]
	}
	return json.Marshal(out)
}

// UnmarshalJSON 从 MarshalJSON 的格式恢复聚合器。
func (l *LineCounts) UnmarshalJSON(data []byte) error {
	var in map[string]CategoryCounts
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var parsed [NumLanguages]CategoryCounts
	for name, counts := range in {
		language, err := ParseLanguage(name)
		if err != nil {
			return err
		}
		parsed[language] = counts
	}
	l.counts = parsed
	return nil
}

// FileMetrics 表示单文件分类结果。
type FileMetrics struct {
	Path     string         `json:"path"`
	Language Language       `json:"-"`
	Counts   CategoryCounts `json:"counts"`
}

// MarshalJSON 让 language 以展示名称输出。
func (f FileMetrics) MarshalJSON() ([]byte, error) {
	type alias FileMetrics
	return json.Marshal(struct {
		alias
		Language string `json:"language"`
	}{
		alias:    alias(f),
		Language: f.Language.String(),
	})
}

// ScanResult 是一次完整扫描（一个快照）的输出模型。
type ScanResult struct {
	Root   string        `json:"root"`
	Files  []FileMetrics `json:"files,omitempty"`
	Counts *LineCounts   `json:"counts"`
}
