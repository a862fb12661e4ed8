package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Template 是预先解析的 ${path} 模板，可对不同数据重复求值。
type Template struct {
	source   string
	segments []segment
}

type segment struct {
	literal string
	path    string // 非空表示占位符
	raw     string // 占位符原文，路径无法解析时原样输出
}

// Compile 解析模板文本。路径为空的 ${} 视为普通文本。
func Compile(text string) *Template {
	t := &Template{source: text}
	last := 0
	for _, loc := range exprPattern.FindAllStringSubmatchIndex(text, -1) {
		path := strings.TrimSpace(text[loc[2]:loc[3]])
		if path == "" {
			continue
		}
		if loc[0] > last {
			t.segments = append(t.segments, segment{literal: text[last:loc[0]]})
		}
		t.segments = append(t.segments, segment{path: path, raw: text[loc[0]:loc[1]]})
		last = loc[1]
	}
	if last < len(text) {
		t.segments = append(t.segments, segment{literal: text[last:]})
	}
	return t
}

// String 返回模板原文。
func (t *Template) String() string { return t.source }

// Paths 返回模板中出现的占位符路径，按出现顺序。
func (t *Template) Paths() []string {
	var out []string
	for _, s := range t.segments {
		if s.path != "" {
			out = append(out, s.path)
		}
	}
	return out
}

// Execute 将占位符替换为 data 中的值；替换结果不会被再次展开。
func (t *Template) Execute(data any) string {
	var b strings.Builder
	for _, s := range t.segments {
		if s.path == "" {
			b.WriteString(s.literal)
			continue
		}
		if data != nil {
			if val, ok := resolvePath(data, s.path); ok {
				b.WriteString(fmt.Sprint(val))
				continue
			}
		}
		b.WriteString(s.raw)
	}
	return b.String()
}

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 若 data 为空或路径不存在，则返回原占位符。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return Compile(text).Execute(data)
}

func resolvePath(data any, path string) (any, bool) {
	current := data
	for _, seg := range strings.Split(path, ".") {
		name, indexes := parseSegment(seg)
		if name != "" {
			var ok bool
			current, ok = descendMap(current, name)
			if !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			current, ok = descendArray(current, idx)
			if !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func parseSegment(seg string) (string, []string) {
	i := strings.Index(seg, "[")
	if i == -1 {
		return seg, nil
	}
	name := seg[:i]
	var indexes []string
	rest := seg[i:]
	for len(rest) > 0 && rest[0] == '[' {
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			break
		}
		indexes = append(indexes, rest[1:end])
		rest = rest[end+1:]
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	case []string:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
