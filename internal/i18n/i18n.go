package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// LocaleZhCN 简体中文
	LocaleZhCN = "zh-CN"
	// LocaleEnUS 英文
	LocaleEnUS = "en-US"

	// DefaultLocale 默认语言
	DefaultLocale = LocaleZhCN
)

// ResolveLocale 解析请求语言：lang 参数 > Accept-Language 头 > 默认语言
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return normalizeLocale(lang)
	}
	if header := c.GetHeader("Accept-Language"); header != "" {
		// 只看权重最高的第一个语言标签
		first := strings.TrimSpace(strings.Split(header, ",")[0])
		if idx := strings.Index(first, ";"); idx >= 0 {
			first = first[:idx]
		}
		if first != "" {
			return normalizeLocale(first)
		}
	}
	return DefaultLocale
}

// T 按语言查找文案，找不到时回退默认语言，再找不到返回 key 本身
func T(locale, key string) string {
	if table, ok := messages[normalizeLocale(locale)]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 按语言查找带占位符的文案并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	template := T(locale, key)
	if len(args) == 0 {
		return template
	}
	return fmt.Sprintf(template, args...)
}

func normalizeLocale(locale string) string {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "zh", "zh-cn", "zh-hans", "zh_cn":
		return LocaleZhCN
	case "en", "en-us", "en_us", "en-gb":
		return LocaleEnUS
	default:
		return DefaultLocale
	}
}
