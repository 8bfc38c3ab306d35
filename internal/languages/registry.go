package languages

import (
	"io"
	"path/filepath"
	"sort"
	"strings"

	"loccat/internal/model"
)

// Analyzer 定义单语言分类器接口。
type Analyzer interface {
	// Language 返回分类器对应的语言。
	Language() model.Language
	// Name 返回语言名称（例如 C++、Python）。
	Name() string
	// Extensions 返回该语言支持的后缀列表（包含点号，如 .cpp）。
	Extensions() []string
	// FileNames 返回按精确文件名识别的列表（如 CMakeLists.txt）。
	FileNames() []string
	// Analyze 流式读取一个文件并返回分类计数。
	Analyze(reader io.Reader, flags model.DirFlags) (model.CategoryCounts, error)
	// ClassifyLines 返回逐行分类结果。
	ClassifyLines(reader io.Reader, flags model.DirFlags) ([]LineResult, error)
}

// LanguageDescriptor 用于对外展示语言及文件选择规则。
type LanguageDescriptor struct {
	Name      string
	Selectors []string
}

// Registry 管理分类器注册与文件名映射。
type Registry struct {
	analyzers      []Analyzer
	analyzerByExt  map[string]Analyzer
	analyzerByName map[string]Analyzer
}

// builtinAnalyzers 返回五种内置语言的标记表。
func builtinAnalyzers() []Analyzer {
	return []Analyzer{
		NewClassifier(model.CFamily, []string{".h", ".cpp"}, nil, Markers{
			TrimTrailing:  true,
			LineComment:   "//",
			DocPrefixes:   []string{"///", "/**"},
			BlockComments: true,
			// "* Copyright" 与 "/* Copyright" 用于嵌入的第三方代码。
			LegalOpeners:       []string{"// Copyright", "* Copyright", "/* Copyright"},
			LegalContinuations: []string{"//", "*"},
		}),
		NewClassifier(model.Script, []string{".py"}, nil, Markers{
			LineComment:        "#",
			LegalOpeners:       []string{"# Copyright"},
			LegalContinuations: []string{"#"},
		}),
		NewClassifier(model.BuildConfig, nil, []string{"CMakeLists.txt"}, Markers{
			LineComment:        "#",
			LegalOpeners:       []string{"# Copyright"},
			LegalContinuations: []string{"#"},
		}),
		NewClassifier(model.Shader, []string{".glsl"}, nil, Markers{
			LineComment:        "//",
			DocPrefixes:        []string{"///"},
			BlockComments:      true,
			LegalOpeners:       []string{"// Copyright"},
			LegalContinuations: []string{"//"},
		}),
		NewClassifier(model.Stylesheet, []string{".qss"}, nil, Markers{
			BlockComments:      true,
			LegalOpeners:       []string{"/* Copyright"},
			LegalContinuations: []string{"*"},
		}),
	}
}

// NewRegistry 创建并注册所有内置语言分类器。
func NewRegistry() *Registry {
	analyzers := builtinAnalyzers()

	registry := &Registry{
		analyzers:      analyzers,
		analyzerByExt:  make(map[string]Analyzer),
		analyzerByName: make(map[string]Analyzer),
	}

	for _, analyzer := range analyzers {
		for _, ext := range analyzer.Extensions() {
			registry.analyzerByExt[ext] = analyzer
		}
		for _, name := range analyzer.FileNames() {
			registry.analyzerByName[name] = analyzer
		}
	}

	return registry
}

// AnalyzerForFile 根据文件名查找分类器：先匹配精确文件名，再匹配后缀。
// 匹配区分大小写，未识别的文件返回 false。
func (r *Registry) AnalyzerForFile(path string) (Analyzer, bool) {
	if analyzer, ok := r.analyzerByName[filepath.Base(path)]; ok {
		return analyzer, true
	}
	analyzer, ok := r.analyzerByExt[filepath.Ext(path)]
	return analyzer, ok
}

// AnalyzerForLanguage 返回指定语言的分类器。
func (r *Registry) AnalyzerForLanguage(language model.Language) (Analyzer, bool) {
	for _, analyzer := range r.analyzers {
		if analyzer.Language() == language {
			return analyzer, true
		}
	}
	return nil, false
}

// Languages 返回已注册语言清单，顺序与注册顺序（即报表顺序）一致。
func (r *Registry) Languages() []LanguageDescriptor {
	result := make([]LanguageDescriptor, 0, len(r.analyzers))
	for _, analyzer := range r.analyzers {
		selectors := make([]string, 0, len(analyzer.Extensions())+len(analyzer.FileNames()))
		for _, ext := range analyzer.Extensions() {
			selectors = append(selectors, "*"+ext)
		}
		selectors = append(selectors, analyzer.FileNames()...)
		sort.Strings(selectors)

		result = append(result, LanguageDescriptor{
			Name:      analyzer.Name(),
			Selectors: selectors,
		})
	}
	return result
}

// Describe 将选择规则拼接为可读字符串。
func (d LanguageDescriptor) Describe() string {
	return strings.Join(d.Selectors, ", ")
}
