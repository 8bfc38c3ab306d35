// Package scanner 提供目录遍历与分类调度能力。
// 该层负责目录遍历、目录上下文维护、文件分发和结果聚合，不负责逐行分类细节。
// 整个扫描过程是单线程、顺序执行的：一次只打开一个文件，读完即关闭。
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"loccat/internal/languages"
	"loccat/internal/model"
)

// ErrUnsupportedFile 表示显式指定的文件无法识别语言。
var ErrUnsupportedFile = errors.New("unsupported file")

// Layout 描述需要扫描的内容，路径均相对于扫描根目录。
type Layout struct {
	// Subtrees 中的每个目录独立遍历，并使用各自的目录上下文。
	Subtrees []string `json:"subtrees"`
	// RootFiles 中的文件单独分类，不带 test/wrap 标记，缺失时报错。
	RootFiles []string `json:"root_files"`
}

// DefaultLayout 扫描整个根目录。
func DefaultLayout() Layout {
	return Layout{Subtrees: []string{"."}}
}

// Service 是扫描服务对象。
type Service struct {
	registry *languages.Registry
	logger   *slog.Logger
}

// NewService 创建扫描服务。logger 为 nil 时使用 slog.Default()。
func NewService(registry *languages.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		logger:   logger,
	}
}

// scanRun 保存一次扫描的可变状态。
type scanRun struct {
	root   string
	result *model.ScanResult
	seen   map[string]struct{}
}

// Scan 按 layout 扫描 root，返回完整的分类结果。
//
// 错误约定：
// - 不存在的子树会被跳过（与逐目录遍历的行为一致）
// - RootFiles 中缺失的文件、无法读取的已识别文件都会直接返回错误，错误链中包含 fs 错误
// - 任何一个文件失败都会终止本次扫描，不返回部分结果
func (s *Service) Scan(ctx context.Context, root string, layout Layout) (model.ScanResult, error) {
	var result model.ScanResult

	trimmedRoot := strings.TrimSpace(root)
	if trimmedRoot == "" {
		return result, errors.New("scan root is empty")
	}

	absoluteRoot, err := filepath.Abs(trimmedRoot)
	if err != nil {
		return result, fmt.Errorf("resolve absolute path: %w", err)
	}

	info, err := os.Stat(absoluteRoot)
	if err != nil {
		return result, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return result, fmt.Errorf("scan root %s is not a directory", absoluteRoot)
	}

	result.Root = absoluteRoot
	result.Files = make([]model.FileMetrics, 0)
	result.Counts = model.NewLineCounts()

	run := &scanRun{
		root:   absoluteRoot,
		result: &result,
		seen:   make(map[string]struct{}),
	}

	for _, subtree := range layout.Subtrees {
		if err := s.scanSubtree(ctx, run, subtree); err != nil {
			return model.ScanResult{}, err
		}
	}

	for _, name := range layout.RootFiles {
		if err := s.scanRootFile(run, name); err != nil {
			return model.ScanResult{}, err
		}
	}

	return result, nil
}

// scanSubtree 遍历单个子树，每个目录先处理自身文件，再进入子目录。
func (s *Service) scanSubtree(ctx context.Context, run *scanRun, subtree string) error {
	directory := filepath.Join(run.root, subtree)

	info, err := os.Stat(directory)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("subtree not found, skipping", slog.String("subtree", subtree))
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat subtree %s: %w", subtree, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("subtree %s is not a directory", subtree)
	}

	tracker := NewDirectoryContext()
	return walkTree(ctx, directory, func(dir string, files []string) error {
		flags := tracker.Enter(dir)
		s.logger.Debug("visit directory",
			slog.String("dir", dir),
			slog.Bool("test", flags.Test),
			slog.Bool("wrap", flags.Wrap),
		)

		for _, path := range files {
			analyzer, ok := s.registry.AnalyzerForFile(path)
			if !ok {
				continue
			}
			if err := s.scanFile(run, path, analyzer, flags); err != nil {
				return err
			}
		}
		return nil
	})
}

// scanRootFile 处理 layout 中显式列出的单个文件。
func (s *Service) scanRootFile(run *scanRun, name string) error {
	path := filepath.Join(run.root, name)

	analyzer, ok := s.registry.AnalyzerForFile(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}
	return s.scanFile(run, path, analyzer, model.DirFlags{})
}

// scanFile 打开并分类一个文件，同一个文件只统计一次。
func (s *Service) scanFile(run *scanRun, path string, analyzer languages.Analyzer, flags model.DirFlags) error {
	if _, ok := run.seen[path]; ok {
		return nil
	}
	run.seen[path] = struct{}{}

	displayPath, relErr := filepath.Rel(run.root, path)
	if relErr != nil {
		displayPath = path
	}
	displayPath = filepath.ToSlash(displayPath)

	counts, err := analyzeFile(path, analyzer, flags)
	if err != nil {
		return fmt.Errorf("classify %s: %w", displayPath, err)
	}

	run.result.Counts.RecordCounts(analyzer.Language(), counts)
	run.result.Files = append(run.result.Files, model.FileMetrics{
		Path:     displayPath,
		Language: analyzer.Language(),
		Counts:   counts,
	})
	return nil
}

// analyzeFile 打开文件并交给分类器，任何返回路径上都会关闭文件。
func analyzeFile(path string, analyzer languages.Analyzer, flags model.DirFlags) (model.CategoryCounts, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.CategoryCounts{}, err
	}
	defer func() { _ = file.Close() }()

	return analyzer.Analyze(file, flags)
}

// ExplainFile 逐行分类单个文件。flags 由调用方决定（例如 FlagsForDir）。
func (s *Service) ExplainFile(path string, flags model.DirFlags) (model.Language, []languages.LineResult, error) {
	analyzer, ok := s.registry.AnalyzerForFile(path)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = file.Close() }()

	lines, err := analyzer.ClassifyLines(file, flags)
	if err != nil {
		return 0, nil, fmt.Errorf("classify %s: %w", path, err)
	}
	return analyzer.Language(), lines, nil
}

// walkTree 自顶向下遍历目录：先以目录自身及其直接文件调用 visit，
// 再按名称顺序进入子目录。每个目录恰好访问一次；每个目录访问前检查 ctx。
func walkTree(ctx context.Context, directory string, visit func(dir string, files []string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(directory)
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	subdirs := make([]string, 0)
	for _, entry := range entries {
		path := filepath.Join(directory, entry.Name())
		if entry.IsDir() {
			subdirs = append(subdirs, path)
			continue
		}
		files = append(files, path)
	}

	if err := visit(directory, files); err != nil {
		return err
	}

	for _, subdir := range subdirs {
		if err := walkTree(ctx, subdir, visit); err != nil {
			return err
		}
	}
	return nil
}
