package model

// Snapshot 是历史统计中某一个提交的分类结果。
type Snapshot struct {
	Commit string      `json:"commit"`
	Date   string      `json:"date"`
	Counts *LineCounts `json:"counts"`
}
