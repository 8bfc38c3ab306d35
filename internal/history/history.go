package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"loccat/internal/model"
	"loccat/internal/scanner"
)

// cacheVersion 在分类规则或缓存格式变化时递增，旧记录会被视为未命中。
const cacheVersion = 1

// SnapshotScanner 对一个工作树执行完整扫描。*scanner.Service 实现了该接口。
type SnapshotScanner interface {
	Scan(ctx context.Context, root string, layout scanner.Layout) (model.ScanResult, error)
}

// Runner 负责历史统计：列出提交、按需检出、扫描并缓存。
// 所有快照严格按顺序处理。
type Runner struct {
	git     GitClient
	scanner SnapshotScanner
	store   Store
	layout  scanner.Layout
	logger  *slog.Logger
	now     func() time.Time
}

// NewRunner 创建历史统计执行器。store 为 nil 时不使用缓存，logger 为 nil 时使用 slog.Default()。
func NewRunner(git GitClient, snapshotScanner SnapshotScanner, store Store, layout scanner.Layout, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		git:     git,
		scanner: snapshotScanner,
		store:   store,
		layout:  layout,
		logger:  logger,
		now:     time.Now,
	}
}

// Run 从 HEAD 开始沿第一父提交向前统计，最多 maxCommits 个（<= 0 表示全部），
// 每得到一个快照就调用一次 emit。
//
// 某个提交的扫描因文件缺失（fs.ErrNotExist）失败时，说明该提交早于当前目录布局，
// 历史统计到此结束且不返回错误；其他错误会立即返回。
func (r *Runner) Run(ctx context.Context, repoPath string, maxCommits int, emit func(model.Snapshot) error) error {
	repo, err := filepath.Abs(repoPath)
	if err != nil {
		return fmt.Errorf("resolve repository path: %w", err)
	}

	commits, err := r.git.ListCommits(ctx, repo, maxCommits)
	if err != nil {
		return fmt.Errorf("list commits: %w", err)
	}
	r.logger.Debug("history commits listed", slog.String("repo", repo), slog.Int("count", len(commits)))

	fingerprint, err := layoutFingerprint(r.layout)
	if err != nil {
		return err
	}

	checkout := &lazyCheckout{git: r.git, source: repo}
	defer checkout.cleanup(r.logger)

	for _, commit := range commits {
		if err := ctx.Err(); err != nil {
			return err
		}

		key := commit.Hash + ":" + fingerprint
		counts, ok := r.lookup(key)
		if !ok {
			workTree, err := checkout.at(ctx, commit.Hash)
			if err != nil {
				return fmt.Errorf("commit %s: %w", commit.Hash, err)
			}
			counts, err = r.scanWorkTree(ctx, workTree, commit)
			if errors.Is(err, fs.ErrNotExist) {
				r.logger.Info("history stopped: layout not present at commit",
					slog.String("commit", commit.Hash),
					slog.String("reason", err.Error()),
				)
				return nil
			}
			if err != nil {
				return fmt.Errorf("commit %s: %w", commit.Hash, err)
			}
			r.save(key, counts)
		}

		snapshot := model.Snapshot{
			Commit: commit.Hash,
			Date:   FormatCommitDate(commit.Date),
			Counts: counts,
		}
		if err := emit(snapshot); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) scanWorkTree(ctx context.Context, workTree string, commit Commit) (*model.LineCounts, error) {
	r.logger.Debug("scanning commit", slog.String("commit", commit.Hash), slog.String("date", commit.Date))
	result, err := r.scanner.Scan(ctx, workTree, r.layout)
	if err != nil {
		return nil, err
	}
	return result.Counts, nil
}

// lookup 读取缓存，任何缓存错误都按未命中处理。
func (r *Runner) lookup(key string) (*model.LineCounts, bool) {
	if r.store == nil {
		return nil, false
	}

	value, version, _, err := r.store.Get(key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		r.logger.Warn("cache lookup failed", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	if version != cacheVersion {
		return nil, false
	}

	counts := model.NewLineCounts()
	if err := json.Unmarshal(value, counts); err != nil {
		r.logger.Warn("cache entry is corrupted", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	return counts, true
}

// save 写入缓存，失败只记录警告，不影响统计结果。
func (r *Runner) save(key string, counts *model.LineCounts) {
	if r.store == nil {
		return
	}

	value, err := json.Marshal(counts)
	if err != nil {
		r.logger.Warn("encode cache entry failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := r.store.Set(key, value, cacheVersion, r.now().Unix()); err != nil {
		r.logger.Warn("cache store failed", slog.String("key", key), slog.Any("error", err))
	}
}

// layoutFingerprint 让不同目录布局的统计结果使用不同的缓存键。
func layoutFingerprint(layout scanner.Layout) (string, error) {
	content, err := json.Marshal(layout)
	if err != nil {
		return "", fmt.Errorf("encode layout: %w", err)
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:8]), nil
}

// lazyCheckout 在第一次缓存未命中时才克隆仓库，全部命中时不产生任何磁盘操作。
type lazyCheckout struct {
	git     GitClient
	source  string
	tempDir string
	clone   string
}

func (c *lazyCheckout) at(ctx context.Context, commit string) (string, error) {
	if c.clone == "" {
		tempDir, err := os.MkdirTemp("", "loccat-history-")
		if err != nil {
			return "", fmt.Errorf("create temporary directory: %w", err)
		}
		c.tempDir = tempDir

		clone := filepath.Join(tempDir, "repo")
		if err := c.git.Clone(ctx, c.source, clone); err != nil {
			return "", fmt.Errorf("clone repository: %w", err)
		}
		c.clone = clone
	}

	if err := c.git.Checkout(ctx, c.clone, commit); err != nil {
		return "", fmt.Errorf("checkout: %w", err)
	}
	return c.clone, nil
}

func (c *lazyCheckout) cleanup(logger *slog.Logger) {
	if c.tempDir == "" {
		return
	}
	if err := os.RemoveAll(c.tempDir); err != nil {
		logger.Warn("remove temporary clone failed", slog.String("dir", c.tempDir), slog.Any("error", err))
	}
}
