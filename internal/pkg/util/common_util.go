package util

import (
	"regexp"
	"strings"
)

var (
	tagRegex     = regexp.MustCompile(`#(\S+)`)
	slugStrip    = regexp.MustCompile(`[^a-z0-9]+`)
	slugCollapse = regexp.MustCompile(`-{2,}`)
)

// ExtractTags 提取去重后的话题标签列表
func ExtractTags(rawContent string) []string {
	matches := tagRegex.FindAllStringSubmatch(rawContent, -1)

	tagSet := make(map[string]struct{})
	tags := make([]string, 0)

	for _, m := range matches {
		if len(m) > 1 {
			tagName := strings.Trim(m[1], ".,，。!?！？#")
			if tagName != "" {
				if _, exists := tagSet[tagName]; !exists {
					tagSet[tagName] = struct{}{}
					tags = append(tags, tagName)
				}
			}
		}
	}

	return tags
}

// TruncateRunes 按码点截断，超出时在结尾追加 marker
func TruncateRunes(s string, limit int, marker string) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + marker
}

// Slugify 由名称生成存储命名空间用的 slug
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "-")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
