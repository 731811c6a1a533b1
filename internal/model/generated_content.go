package model

import (
	"time"

	"gorm.io/datatypes"
)

// GeneratedContent 一次会话的全部生成产物
// 每个会话最多一行，重新生成时整行覆盖
type GeneratedContent struct {
	BaseModel

	SessionID string `gorm:"size:100;uniqueIndex;not null;comment:会话ID" json:"session_id"`

	// 文本类
	YoutubeSummary string `gorm:"type:text;comment:YouTube三段式简介" json:"youtube_summary"`
	BlogPost       string `gorm:"type:text;comment:长文博客" json:"blog_post"`
	TwoLineSummary string `gorm:"type:text;comment:两行摘要" json:"two_line_summary"`
	LinkedinPost   string `gorm:"type:text;comment:LinkedIn帖子" json:"linkedin_post"`
	Keywords       string `gorm:"type:text;comment:逗号分隔关键词" json:"keywords"`
	Hashtags       string `gorm:"type:text;comment:话题标签(#前缀)" json:"hashtags"`

	// 列表类（JSON 数组）
	ClickbaitTitles   datatypes.JSON `gorm:"comment:20条标题" json:"clickbait_titles"`
	Quotes            datatypes.JSON `gorm:"comment:20条金句" json:"quotes"`
	ChapterTimestamps datatypes.JSON `gorm:"comment:章节时间轴" json:"chapter_timestamps"`

	ModelUsed   string    `gorm:"size:50;comment:实际使用的模型" json:"model_used"`
	GeneratedAt time.Time `gorm:"index;comment:生成时间" json:"generated_at"`
}

func (GeneratedContent) TableName() string {
	return "generated_content"
}
