package service

import (
	"fmt"
	"regexp"
	"strings"

	"podcast_studio_v1_202608/internal/model"
	"podcast_studio_v1_202608/pkg/utils"
)

// ==================== 渲染器 ====================

// transcriptCharLimits 各内容类型注入全文前的字符上限
// 长文类型给大预算，短产出类型给小预算以省 token；未列出的类型不截断
var transcriptCharLimits = map[string]int{
	model.ContentTypeYoutubeSummary:  8000,
	model.ContentTypeBlogPost:        12000,
	model.ContentTypeClickbaitTitles: 6000,
	model.ContentTypeTwoLineSummary:  6000,
}

// MissingFieldError 模板引用了未提供的占位符
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("模板占位符缺少字段: %s", e.Field)
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// PromptRenderer 提示词渲染器
// 负责字段替换与 transcript 截断，字段内容本身不再做二次占位符展开
type PromptRenderer struct{}

// NewPromptRenderer 创建渲染器
func NewPromptRenderer() *PromptRenderer {
	return &PromptRenderer{}
}

// Render 将模板中的 {field} 占位符替换为对应字段值
// transcript 字段先按内容类型截断；任何未提供的占位符视为硬错误，
// 宁可整次生成失败也不把字面 {placeholder} 发给服务商
func (r *PromptRenderer) Render(promptType, template string, fields map[string]string) (string, error) {
	if limit, ok := transcriptCharLimits[promptType]; ok {
		if transcript, has := fields["transcript"]; has {
			fields["transcript"] = truncateRunes(transcript, limit)
		}
	}

	var missing *MissingFieldError
	rendered := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := fields[name]
		if !ok {
			if missing == nil {
				missing = &MissingFieldError{Field: name}
			}
			return match
		}
		return value
	})
	if missing != nil {
		return "", missing
	}
	return rendered, nil
}

// FormatSegmentsWithTimecodes 将分段转为 "[HH:MM:SS] 文本" 行
// limit 限制扫描的分段数，step 用于抽样（章节场景每 10 段取 1 段）
func FormatSegmentsWithTimecodes(segments []model.TranscriptSegment, limit, step int) string {
	if step < 1 {
		step = 1
	}
	if limit > len(segments) || limit <= 0 {
		limit = len(segments)
	}

	lines := make([]string, 0, limit/step+1)
	for i := 0; i < limit; i += step {
		seg := segments[i]
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", utils.FormatTimestamp(seg.Start), text))
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
