package model

import "fmt"

// Category 表示一行源码的唯一分类。
// 每一行恰好属于一个分类，同一文件各分类计数之和等于文件总行数。
type Category int

const (
	// Blank 仅包含空白字符的行。
	Blank Category = iota
	// Legal 版权/许可声明样板。
	Legal
	// Comment 面向维护者的内部注释。
	Comment
	// Doc 公共 API 文档注释（例如 Doxygen）。
	Doc
	// Test 测试目录下的代码行。
	Test
	// Wrap 封装（wraps）目录下的代码行，单独统计。
	Wrap
	// Code 其余所有代码行。
	Code

	// NumCategories 分类数量，用于定长数组。
	NumCategories = int(Code) + 1
)

var categoryNames = [NumCategories]string{"Blank", "Legal", "Comment", "Doc", "Test", "Wrap", "Code"}

// String 返回报表中使用的分类名称。
func (c Category) String() string {
	if c < 0 || int(c) >= NumCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Categories 按报表顺序返回全部分类。
func Categories() []Category {
	return []Category{Blank, Legal, Comment, Doc, Test, Wrap, Code}
}

// ParseCategory 根据名称解析分类，主要用于缓存反序列化。
func ParseCategory(name string) (Category, error) {
	for idx, item := range categoryNames {
		if item == name {
			return Category(idx), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", name)
}

// Language 表示源码语言，仅由文件名决定。
type Language int

const (
	// CFamily 对应 .h / .cpp。
	CFamily Language = iota
	// Script 对应 .py。
	Script
	// BuildConfig 对应 CMakeLists.txt。
	BuildConfig
	// Shader 对应 .glsl。
	Shader
	// Stylesheet 对应 .qss。
	Stylesheet

	// NumLanguages 语言数量。
	NumLanguages = int(Stylesheet) + 1
)

var languageNames = [NumLanguages]string{"C++", "Python", "CMake", "GLSL", "Qt Stylesheet"}

func (l Language) String() string {
	if l < 0 || int(l) >= NumLanguages {
		return fmt.Sprintf("Language(%d)", int(l))
	}
	return languageNames[l]
}

// Languages 按报表顺序返回全部语言。
func Languages() []Language {
	return []Language{CFamily, Script, BuildConfig, Shader, Stylesheet}
}

// ParseLanguage 根据展示名称解析语言。
func ParseLanguage(name string) (Language, error) {
	for idx, item := range languageNames {
		if item == name {
			return Language(idx), nil
		}
	}
	return 0, fmt.Errorf("unknown language %q", name)
}

// DirFlags 是目录上下文传给分类器的标记，在单个文件内保持不变。
type DirFlags struct {
	Test bool
	Wrap bool
}
