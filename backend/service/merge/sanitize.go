package merge

import (
	"strings"
	"unicode"
)

// decorativeBrackets 订阅节点名里常见的装饰性括号。
// 清洗时整组剔除；两个只差装饰的名字会得到同一个清洗结果。
const decorativeBrackets = "【】[]（）()「」『』〖〗《》"

// SanitizeTag strips decorative brackets, collapses interior whitespace
// runs to a single space and trims trailing whitespace. It is pure and
// deterministic: the result doubles as the deduplication identity key.
func SanitizeTag(tag string) string {
	var b strings.Builder
	b.Grow(len(tag))

	space := false
	for _, r := range tag {
		if strings.ContainsRune(decorativeBrackets, r) {
			continue
		}
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
		}
		b.WriteRune(r)
	}

	return b.String()
}
