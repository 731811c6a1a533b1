package service

import (
	"sort"
	"strings"

	"podcast_studio_v1_202608/pkg/utils"
)

// ==================== 响应解析 ====================
// 模型输出格式不可控，这里把自由文本规整成定长列表、时间轴和关键词串
// 解析永不报错，空输入退化为默认值

// parseListResponse 将模型输出规整为 targetCount 条的列表
// 逐行去掉 "1." "2)" 式编号和 "-" "•" 式项目符号，丢弃空行，
// 不足补默认项，超出截断；maxItemLen > 0 时单条按字符截断
func parseListResponse(response string, targetCount, maxItemLen int, defaultItem string) []string {
	items := make([]string, 0, targetCount)

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		line = stripNumbering(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "-•"))
		if line == "" {
			continue
		}

		if maxItemLen > 0 {
			line = truncateRunes(line, maxItemLen)
		}
		items = append(items, line)
	}

	for len(items) < targetCount {
		items = append(items, defaultItem)
	}
	return items[:targetCount]
}

// stripNumbering 去掉行首编号，分隔符限定在前 3 个字符内，
// 避免把 "2024. The year..." 这类以年份开头的正文误伤
func stripNumbering(line string) string {
	if line[0] < '0' || line[0] > '9' {
		return line
	}
	bound := 3
	if len(line) < bound {
		bound = len(line)
	}
	idx := strings.IndexAny(line[:bound], ".)")
	if idx == -1 {
		return line
	}
	return strings.TrimSpace(line[idx+1:])
}

// parseTimestampsResponse 提取 "HH:MM:SS - 标题" 格式的章节行并按时间排序
// 稳定排序保证解析失败（按 0 秒处理）的行保持原有相对顺序
func parseTimestampsResponse(response string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, " - ") {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return []string{"00:00:00 - Introduction"}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return chapterSeconds(lines[i]) < chapterSeconds(lines[j])
	})
	return lines
}

func chapterSeconds(line string) int {
	ts := strings.TrimSpace(strings.SplitN(line, " - ", 2)[0])
	return utils.ParseTimestamp(ts)
}

// normalizeKeywords 清理关键词串并压到 500 字符以内
func normalizeKeywords(response string) string {
	s := strings.TrimRight(strings.TrimSpace(response), ".")
	return strings.TrimSpace(truncateAtComma(s))
}

// generateHashtagsFromKeywords 从关键词串派生话题标签串
// 逐项去空格拼 "#" 前缀，"machine learning" 变 "#machinelearning"
func generateHashtagsFromKeywords(keywords string) string {
	tags := make([]string, 0)
	for _, kw := range strings.Split(keywords, ",") {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		kw = strings.ReplaceAll(kw, " ", "")
		kw = strings.TrimRight(kw, ".")
		tags = append(tags, "#"+kw)
	}
	return truncateAtComma(strings.Join(tags, ", "))
}

// truncateAtComma 超过 500 字符时截断，优先在 400 字符之后的
// 最后一个逗号处断开，避免留下半截关键词
func truncateAtComma(s string) string {
	runes := []rune(s)
	if len(runes) <= 500 {
		return s
	}
	s = string(runes[:500])
	if idx := strings.LastIndex(s, ","); idx > 400 {
		s = s[:idx]
	}
	return s
}
