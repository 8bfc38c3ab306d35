package scanner

import (
	"path/filepath"
	"strings"

	"loccat/internal/model"
)

// 目录名约定：名为 tests 的目录下是测试代码，名为 wraps 的目录下是封装代码。
const (
	testsSegment = "tests"
	wrapsSegment = "wraps"
)

// prefixLatch 记录当前生效的目录前缀。
// prefix 为空表示 "none"。
type prefixLatch struct {
	segment string
	prefix  string
}

// enter 处理一个新访问的目录，返回该目录是否位于前缀之下。
//
// 已知限制：判断使用字符串前缀而不是路径段前缀，
// 因此 /lib/tests 生效时访问 /lib/tests-extra 也会被视为测试目录。
// 保持该行为是为了让历史统计结果可比。
func (l *prefixLatch) enter(dir string) bool {
	if strings.HasSuffix(dir, "/"+l.segment) {
		l.prefix = dir
	}
	if l.prefix != "" && strings.HasPrefix(dir, l.prefix) {
		return true
	}
	l.prefix = ""
	return false
}

// DirectoryContext 在一次目录遍历中跟踪 tests / wraps 子树。
// 每个被遍历的子树根目录使用一个新的 DirectoryContext。
type DirectoryContext struct {
	test prefixLatch
	wrap prefixLatch
}

// NewDirectoryContext 创建两个前缀都为 "none" 的上下文。
func NewDirectoryContext() *DirectoryContext {
	return &DirectoryContext{
		test: prefixLatch{segment: testsSegment},
		wrap: prefixLatch{segment: wrapsSegment},
	}
}

// Enter 必须对每个访问到的目录恰好调用一次（先父后子），
// 返回该目录下直接包含的文件应使用的标记。test 与 wrap 相互独立，可以同时为 true。
func (c *DirectoryContext) Enter(dir string) model.DirFlags {
	dir = filepath.ToSlash(dir)
	return model.DirFlags{
		Test: c.test.enter(dir),
		Wrap: c.wrap.enter(dir),
	}
}

// FlagsForDir 从 root 开始依次进入 dir 的每一级祖先目录并返回最终标记。
// 只回放祖先链，不包含完整遍历中兄弟目录（例如 tests-extra 的情况）对前缀的影响。
// dir 不在 root 之下时只进入 dir 本身。
func FlagsForDir(root string, dir string) model.DirFlags {
	tracker := NewDirectoryContext()

	relative, err := filepath.Rel(root, dir)
	if err != nil || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
		return tracker.Enter(dir)
	}

	flags := tracker.Enter(root)
	if relative == "." {
		return flags
	}

	current := root
	for _, part := range strings.Split(relative, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		flags = tracker.Enter(current)
	}
	return flags
}
