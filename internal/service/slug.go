package service

import (
	"regexp"
	"strings"

	"github.com/wenji-next/internal/constants"

	"github.com/google/uuid"
)

var (
	slugInvalidPattern = regexp.MustCompile(`[^a-z0-9\p{Han}]+`)
	slugDashPattern    = regexp.MustCompile(`-{2,}`)
	htmlTagPattern     = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// slugify 由标题/名称派生 URL 安全的 slug。
// 派生结果为空（如纯符号标题）时退化为随机短标识。
func slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugInvalidPattern.ReplaceAllString(slug, "-")
	slug = slugDashPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return shortID()
	}
	return slug
}

// uniqueSuffix 冲突时追加的短随机后缀
func uniqueSuffix(slug string) string {
	return slug + "-" + shortID()
}

func shortID() string {
	return uuid.NewString()[:8]
}

// deriveSummary 摘要缺省时由正文派生：
// 去掉 HTML 标签、折叠空白后取前 N 个字符加省略号。
func deriveSummary(content string) string {
	plain := htmlTagPattern.ReplaceAllString(content, " ")
	plain = whitespacePattern.ReplaceAllString(plain, " ")
	plain = strings.TrimSpace(plain)
	runes := []rune(plain)
	if len(runes) <= constants.PostSummaryLength {
		return plain
	}
	return string(runes[:constants.PostSummaryLength]) + "..."
}
