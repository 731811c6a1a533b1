package utils

import (
	"strconv"
	"strings"
)

// FormatTimestamp 秒数转 HH:MM:SS
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	return pad2(h) + ":" + pad2(m) + ":" + pad2(s)
}

// ParseTimestamp 解析 HH:MM:SS / MM:SS / 纯秒数为总秒数
// 解析失败返回 0，排序场景下等价于排到最前
func ParseTimestamp(ts string) int {
	parts := strings.Split(strings.TrimSpace(ts), ":")

	switch len(parts) {
	case 3:
		h, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		m, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		s, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil || err3 != nil {
			return 0
		}
		return h*3600 + m*60 + s
	case 2:
		m, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		s, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil {
			return 0
		}
		return m*60 + s
	default:
		s, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0
		}
		return s
	}
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
