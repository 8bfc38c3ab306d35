// Package history 沿着仓库的第一父提交链逐个统计快照。
// 每个快照都是在该提交的工作树上完整执行一次扫描，结果按提交缓存。
package history

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Commit 是第一父链上的一个提交。
type Commit struct {
	Hash string
	// Date 为 git --date=iso 格式，例如 "2018-08-08 15:40:31 +0200"。
	Date string
}

// GitClient 抽象历史统计需要的 git 操作，测试中可以替换为假实现。
type GitClient interface {
	// ListCommits 从 HEAD 开始沿第一父提交返回最多 limit 个提交（limit <= 0 表示全部）。
	ListCommits(ctx context.Context, repoPath string, limit int) ([]Commit, error)
	// Clone 将 source 克隆到 destination。
	Clone(ctx context.Context, source string, destination string) error
	// Checkout 将 repoPath 的工作树切换到指定提交。
	Checkout(ctx context.Context, repoPath string, commit string) error
}

// LocalGitClient 通过本机 git 可执行文件实现 GitClient。
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{}

// NewLocalGitClient 创建本地 git 客户端。
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

const (
	// commitFieldSeparator 分隔 git log 输出中的哈希与日期。
	commitFieldSeparator = "|"
	gitISODateLayout     = "2006-01-02 15:04:05 -0700"
	commitDateLayout     = "2006-01-02T15:04:05-0700"
)

// Run 在 repoPath 下执行 git 命令并返回标准输出。
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	return c.run(ctx, fullArgs...)
}

func (c *LocalGitClient) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, fmt.Errorf("git '%v' exit: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
	} else if err != nil {
		return nil, fmt.Errorf("git '%v' unknown: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// ListCommits implements the GitClient interface.
func (c *LocalGitClient) ListCommits(ctx context.Context, repoPath string, limit int) ([]Commit, error) {
	args := []string{
		"log",
		"--first-parent",
		"--date=iso",
		"--pretty=format:%H" + commitFieldSeparator + "%ad",
	}
	if limit > 0 {
		args = append(args, fmt.Sprintf("-n%d", limit))
	}

	out, err := c.Run(ctx, repoPath, args...)
	if err != nil {
		return nil, err
	}
	return parseCommitLog(string(out))
}

// Clone implements the GitClient interface.
func (c *LocalGitClient) Clone(ctx context.Context, source string, destination string) error {
	_, err := c.run(ctx, "clone", "--quiet", source, destination)
	return err
}

// Checkout implements the GitClient interface.
func (c *LocalGitClient) Checkout(ctx context.Context, repoPath string, commit string) error {
	_, err := c.Run(ctx, repoPath, "checkout", "--quiet", "--force", commit)
	return err
}

// parseCommitLog 解析 "hash|date" 形式的多行输出，忽略空行。
func parseCommitLog(output string) ([]Commit, error) {
	commits := make([]Commit, 0)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		hash, date, ok := strings.Cut(line, commitFieldSeparator)
		if !ok || hash == "" {
			return nil, fmt.Errorf("unexpected git log line %q", line)
		}
		commits = append(commits, Commit{Hash: hash, Date: strings.TrimSpace(date)})
	}
	return commits, nil
}

// FormatCommitDate 把 git 的 iso 日期转换为 ISO 8601 形式：
// "2018-08-08 15:40:31 +0200" -> "2018-08-08T15:40:31+0200"。
// 无法识别的输入原样返回。
func FormatCommitDate(date string) string {
	parsed, err := time.Parse(gitISODateLayout, strings.TrimSpace(date))
	if err != nil {
		return date
	}
	return parsed.Format(commitDateLayout)
}
