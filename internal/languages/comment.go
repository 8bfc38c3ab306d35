package languages

import "strings"

// scanBlockComment 是 /* */ 块注释的状态机。
//
// within 表示本行开始时是否处于未闭合的块注释中。返回值：
// - hasCode: 本行在块注释之外是否还有任何字符
// - withinAtEnd: 本行结束时是否仍处于块注释中
//
// 行尾的反斜杠与空格会先被去掉，这样宏续行里被拆开的注释标记仍能识别。
//
// 已知限制：字符串或字符字面量中的 "/*"、"*/" 也会被当作真正的注释标记，
// 例如 s1 := "/*" 与 s2 := "*/" 之间的代码会被计为注释。
// 这种情况极少见，行数统计本身也是粗略指标，因此保持该近似。
func scanBlockComment(line string, within bool) (hasCode bool, withinAtEnd bool) {
	line = strings.TrimRight(line, "\\ ")

	for idx := 0; idx < len(line); {
		if within {
			if strings.HasPrefix(line[idx:], "*/") {
				within = false
				idx += 2
				continue
			}
			idx++
			continue
		}

		if strings.HasPrefix(line[idx:], "/*") {
			within = true
			idx += 2
			continue
		}
		hasCode = true
		idx++
	}

	return hasCode, within
}
