package languages

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrInvalidEncoding 表示某一行不是合法 UTF-8。
// 该错误直接终止当前文件，避免丢行破坏“各分类之和等于总行数”的约束。
var ErrInvalidEncoding = errors.New("invalid utf-8 encoding")

// normalizeLine 用于去除每行末尾的换行符。
// 该函数适配 Windows 的 \r\n 与 Unix 的 \n。
func normalizeLine(line string) string {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line
}

// forEachLine 流式读取 reader，并把归一化后的每一行交给 handle。
// 最后一行即使没有换行符也会被处理；空输入不产生任何行。
func forEachLine(reader io.Reader, handle func(number int, line string)) error {
	bufferedReader := bufio.NewReader(reader)

	for number := 1; ; number++ {
		line, err := bufferedReader.ReadString('\n')
		// 没有残留字符的 EOF 说明读取完成。
		if errors.Is(err, io.EOF) && len(line) == 0 {
			return nil
		}
		// 真正读取错误直接返回。
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read line %d: %w", number, err)
		}

		currentLine := normalizeLine(line)
		if !utf8.ValidString(currentLine) {
			return fmt.Errorf("line %d: %w", number, ErrInvalidEncoding)
		}
		handle(number, currentLine)

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}
