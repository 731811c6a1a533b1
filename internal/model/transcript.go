package model

import (
	"gorm.io/datatypes"
)

// TranscriptSegment 带时间码的转写片段，时间单位为秒
type TranscriptSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript 一次会话的转写结果
// Segments 为 TranscriptSegment 数组的 JSON 序列化
type Transcript struct {
	BaseModel

	SessionID       string         `gorm:"size:100;index;not null;comment:会话ID" json:"session_id"`
	RawText         string         `gorm:"type:text;comment:完整转写文本" json:"raw_text"`
	Segments        datatypes.JSON `gorm:"comment:带时间码片段" json:"segments"`
	DurationSeconds float64        `gorm:"comment:音频时长(秒)" json:"duration_seconds"`
}

func (Transcript) TableName() string {
	return "transcripts"
}
