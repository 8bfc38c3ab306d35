package languages

import (
	"io"
	"strings"
	"unicode"

	"loccat/internal/model"
)

// Markers 描述一种语言的注释与版权标记。
// 五种语言共用同一个分类流程，差异只体现在这张表里。
type Markers struct {
	// TrimTrailing 为 true 时同时去除行首和行尾空白，否则只去除行首空白。
	TrimTrailing bool
	// LineComment 是整行注释前缀，为空表示该语言没有行注释。
	LineComment string
	// DocPrefixes 是文档注释前缀。
	DocPrefixes []string
	// BlockComments 表示是否跟踪 /* */ 块注释。
	BlockComments bool
	// LegalOpeners 命中任一前缀即进入版权块。
	LegalOpeners []string
	// LegalContinuations 版权块内每一行必须以其中之一开头，否则版权块结束。
	LegalContinuations []string
}

// LineResult 是 explain 模式下的单行分类结果。
type LineResult struct {
	Number   int
	Text     string
	Category model.Category
}

// Classifier 是参数化的单语言分类器，实现 Analyzer 接口。
type Classifier struct {
	language   model.Language
	extensions []string
	fileNames  []string
	markers    Markers
}

// NewClassifier 创建分类器。extensions 为后缀（含点号），fileNames 为精确文件名。
func NewClassifier(language model.Language, extensions []string, fileNames []string, markers Markers) *Classifier {
	return &Classifier{
		language:   language,
		extensions: extensions,
		fileNames:  fileNames,
		markers:    markers,
	}
}

// Language 返回分类器对应的语言。
func (c *Classifier) Language() model.Language {
	return c.language
}

// Name 返回语言名称。
func (c *Classifier) Name() string {
	return c.language.String()
}

// Extensions 返回支持的后缀列表。
func (c *Classifier) Extensions() []string {
	return c.extensions
}

// FileNames 返回按精确文件名匹配的列表。
func (c *Classifier) FileNames() []string {
	return c.fileNames
}

// Analyze 流式读取一个文件并返回七个分类的计数。
// 分类状态只在本次调用内有效，不会跨文件延续。
func (c *Classifier) Analyze(reader io.Reader, flags model.DirFlags) (model.CategoryCounts, error) {
	var counts model.CategoryCounts
	state := c.newState(flags)

	err := forEachLine(reader, func(_ int, line string) {
		counts[state.classify(line)]++
	})
	return counts, err
}

// ClassifyLines 返回每一行的分类，供 explain 命令逐行展示。
func (c *Classifier) ClassifyLines(reader io.Reader, flags model.DirFlags) ([]LineResult, error) {
	results := make([]LineResult, 0)
	state := c.newState(flags)

	err := forEachLine(reader, func(number int, line string) {
		results = append(results, LineResult{
			Number:   number,
			Text:     line,
			Category: state.classify(line),
		})
	})
	return results, err
}

func (c *Classifier) newState(flags model.DirFlags) *classifierState {
	return &classifierState{
		markers: &c.markers,
		flags:   flags,
	}
}

// classifierState 维护单个文件的块注释与版权块状态。
type classifierState struct {
	markers            *Markers
	flags              model.DirFlags
	withinBlockComment bool
	withinLegalBlock   bool
}

// classify 更新状态并返回当前行的分类。
//
// 判定顺序（先命中先返回）：
// Legal > Blank > Doc > Comment > Test > Wrap > Code
func (s *classifierState) classify(line string) model.Category {
	if s.markers.TrimTrailing {
		line = strings.TrimSpace(line)
	} else {
		line = strings.TrimLeftFunc(line, unicode.IsSpace)
	}

	// 块注释状态每行都要推进，即使该行最终被判定为 Legal 或 Blank。
	hasCode := true
	if s.markers.BlockComments {
		hasCode, s.withinBlockComment = scanBlockComment(line, s.withinBlockComment)
	}

	if hasAnyPrefix(line, s.markers.LegalOpeners) {
		s.withinLegalBlock = true
	} else if s.withinLegalBlock && !hasAnyPrefix(line, s.markers.LegalContinuations) {
		s.withinLegalBlock = false
	}

	switch {
	case s.withinLegalBlock:
		return model.Legal
	case line == "":
		return model.Blank
	case hasAnyPrefix(line, s.markers.DocPrefixes):
		return model.Doc
	case s.markers.LineComment != "" && strings.HasPrefix(line, s.markers.LineComment):
		return model.Comment
	case !hasCode:
		return model.Comment
	case s.flags.Test:
		return model.Test
	case s.flags.Wrap:
		return model.Wrap
	default:
		return model.Code
	}
}

func hasAnyPrefix(line string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
